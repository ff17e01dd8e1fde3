package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

// --- Variables Globales ---
var (
	Redis *redis.Client
)

// ConnectOrdersSession ouvre la session ScyllaDB du keyspace commandes.
// Les tables doivent être créées manuellement via scripts/scylladb_init.cql
func ConnectOrdersSession() (*gocql.Session, error) {
	hosts := strings.Split(os.Getenv("SCYLLA_HOSTS"), ",")
	keyspace := os.Getenv("SCYLLA_KS_ORDERS_KEYSPACE")
	if keyspace == "" {
		return nil, fmt.Errorf("SCYLLA_KS_ORDERS_KEYSPACE non configuré")
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.ReconnectInterval = 1 * time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if username := os.Getenv("SCYLLA_KS_ORDERS_ROLE"); username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: username,
			Password: os.Getenv("SCYLLA_KS_ORDERS_PASSWORD"),
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %v", keyspace, err)
	}

	log.Printf("✅ Session ScyllaDB ouverte pour keyspace '%s'", keyspace)
	return session, nil
}

// ConnectRedis initialise le client Redis (dedup webhooks, cache statut,
// rate limiting). Redis est optionnel : sans REDIS_HOST ces protections
// sont simplement désactivées.
func ConnectRedis(ctx context.Context) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		log.Println("⚠️ REDIS_HOST absent — dedup webhooks, cache et rate limiting désactivés")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     host,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

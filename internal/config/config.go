// Package config charge les variables d'environnement du serveur de commandes.
// Les clés Stripe et NOWPayments, les secrets webhook et les accès ScyllaDB et
// Redis sont lus à l'endroit où on les consomme ; ici on se contente d'hydrater
// l'environnement depuis un éventuel fichier .env.
package config

import (
	"log"

	"github.com/joho/godotenv"
)

// Load hydrate l'environnement depuis .env. L'absence du fichier n'est pas une
// erreur : en production la configuration vient de l'environnement du système.
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haziqazlan/agcutz-barbershop/internal/auth"
	"github.com/haziqazlan/agcutz-barbershop/internal/config"
	"github.com/haziqazlan/agcutz-barbershop/internal/db"
	"github.com/haziqazlan/agcutz-barbershop/internal/models"
)

// Seeds the admin dashboard user from ADMIN_USER / ADMIN_PASSWORD. Safe to
// re-run: an existing username is left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required to seed the admin user")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now().In(cfg.Timezone)
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":          primitive.NewObjectID().Hex(),
			"username":     cfg.AdminUser,
			"passwordHash": hash,
			"role":         models.UserRoleAdmin,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	res, err := cols.Users.UpdateOne(ctx, bson.M{"username": cfg.AdminUser}, update, options.Update().SetUpsert(true))
	if err != nil {
		log.Fatal(err)
	}

	if res.UpsertedCount > 0 {
		log.Printf("admin user %q created", cfg.AdminUser)
	} else {
		log.Printf("admin user %q already exists, left unchanged", cfg.AdminUser)
	}
}

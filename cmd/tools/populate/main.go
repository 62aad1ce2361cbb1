package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smarttalks/booker-agent/internal/config"
	"github.com/smarttalks/booker-agent/internal/model/booking"
)

// dayDoc matches the document shape the schedule store reads.
type dayDoc struct {
	Date  time.Time `bson:"date"`
	Slots []slotDoc `bson:"slots"`
}

type slotDoc struct {
	Time       string `bson:"time"`
	ClientName string `bson:"clientName"`
	Status     string `bson:"status"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	start := flag.String("start", "", "first day to seed (YYYY-MM-DD, default today)")
	days := flag.Int("days", 31, "number of days to seed")
	timeout := flag.Duration("timeout", 30*time.Second, "operation timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.Schedule.Enabled() {
		log.Fatal("MONGODB_URI must be set to populate the schedule")
	}
	if *days < 1 {
		log.Fatalf("invalid -days value %d", *days)
	}

	startDay := time.Now().UTC().Truncate(24 * time.Hour)
	if *start != "" {
		startDay, err = booking.ParseDate(*start)
		if err != nil {
			log.Fatalf("invalid -start value %q: %v", *start, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Schedule.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("mongodb disconnect error: %v", err)
		}
	}()

	coll := client.Database(cfg.Schedule.Database).Collection(cfg.Schedule.Collection)

	deleted, err := coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		log.Fatalf("failed to clear schedule collection: %v", err)
	}
	log.Printf("cleared %d existing days", deleted.DeletedCount)

	docs := make([]interface{}, 0, *days)
	for i := 0; i < *days; i++ {
		slots := make([]slotDoc, 0, len(booking.DefaultSlotTimes))
		for _, t := range booking.DefaultSlotTimes {
			slots = append(slots, slotDoc{Time: t, Status: string(booking.StatusAvailable)})
		}
		docs = append(docs, dayDoc{Date: startDay.AddDate(0, 0, i), Slots: slots})
	}

	inserted, err := coll.InsertMany(ctx, docs)
	if err != nil {
		log.Fatalf("failed to insert schedule days: %v", err)
	}
	log.Printf("populated schedule with %d days starting %s", len(inserted.InsertedIDs), startDay.Format(booking.DateLayout))
}

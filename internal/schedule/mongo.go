package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smarttalks/booker-agent/internal/model/booking"
)

// dayDoc mirrors one document of the schedule collection.
type dayDoc struct {
	Date  time.Time `bson:"date"`
	Slots []slotDoc `bson:"slots"`
}

type slotDoc struct {
	Time       string `bson:"time"`
	ClientName string `bson:"clientName"`
	Status     string `bson:"status"`
	Subject    string `bson:"subject,omitempty"`
	Company    string `bson:"company,omitempty"`
}

// MongoStore implements Store against the schedule collection populated by
// cmd/tools/populate. Documents are keyed by midnight-UTC date.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wires the store to the given database and collection.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{coll: client.Database(database).Collection(collection)}
}

// Day reads the document for a date; a missing document yields the default
// fully-available day rather than an error.
func (s *MongoStore) Day(ctx context.Context, date string) (booking.DaySchedule, error) {
	day, err := booking.ParseDate(date)
	if err != nil {
		return booking.DaySchedule{}, ErrInvalidDate
	}

	var doc dayDoc
	err = s.coll.FindOne(ctx, bson.M{"date": day}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return booking.DaySchedule{Date: date, Slots: booking.DefaultSlots()}, nil
	}
	if err != nil {
		return booking.DaySchedule{}, fmt.Errorf("find schedule day %s: %w", date, err)
	}

	slots := make([]booking.Slot, 0, len(doc.Slots))
	for _, sd := range doc.Slots {
		slots = append(slots, booking.Slot{
			Time:       sd.Time,
			ClientName: sd.ClientName,
			Status:     booking.SlotStatus(sd.Status),
			Subject:    sd.Subject,
			Company:    sd.Company,
		})
	}
	return booking.DaySchedule{Date: date, Slots: slots}, nil
}

// SetSlotStatus updates one slot in place via the positional operator,
// materializing the day document first when the populate script has not
// covered the date yet.
func (s *MongoStore) SetSlotStatus(ctx context.Context, date, slotTime string, status booking.SlotStatus, fields *BookingFields) error {
	day, err := booking.ParseDate(date)
	if err != nil {
		return ErrInvalidDate
	}
	if !booking.SlotDefined(slotTime) {
		return ErrSlotNotFound
	}

	var doc dayDoc
	err = s.coll.FindOne(ctx, bson.M{"date": day}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		doc = defaultDayDoc(day)
		if _, err := s.coll.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("insert schedule day %s: %w", date, err)
		}
	} else if err != nil {
		return fmt.Errorf("find schedule day %s: %w", date, err)
	}

	if status == booking.StatusBooked {
		for _, sd := range doc.Slots {
			if sd.Time == slotTime && booking.SlotStatus(sd.Status) == booking.StatusBooked {
				return ErrSlotUnavailable
			}
		}
	}

	set := bson.M{"slots.$.status": string(status)}
	if status == booking.StatusBooked && fields != nil {
		set["slots.$.clientName"] = fields.ClientName
		set["slots.$.subject"] = fields.Subject
		set["slots.$.company"] = fields.Company
	} else if status == booking.StatusAvailable {
		set["slots.$.clientName"] = ""
		set["slots.$.subject"] = ""
		set["slots.$.company"] = ""
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"date": day, "slots.time": slotTime},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update slot %s %s: %w", date, slotTime, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func defaultDayDoc(day time.Time) dayDoc {
	slots := make([]slotDoc, 0, len(booking.DefaultSlotTimes))
	for _, t := range booking.DefaultSlotTimes {
		slots = append(slots, slotDoc{Time: t, Status: string(booking.StatusAvailable)})
	}
	return dayDoc{Date: day, Slots: slots}
}

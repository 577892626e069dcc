package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const collectionStatusEvents = "status_events"

// EventRepository reads and writes the status_events audit trail and applies
// accepted events to the shipments collection.
type EventRepository struct {
	db *mongo.Database
}

var (
	_ ports.EventRepository = (*EventRepository)(nil)
	_ ports.EventRecorder   = (*EventRepository)(nil)
)

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{db: db}
}

type statusEventDoc struct {
	TrackingNumber string    `bson:"tracking_number"`
	Status         string    `bson:"status"`
	Location       string    `bson:"location,omitempty"`
	Note           string    `bson:"note,omitempty"`
	Timestamp      time.Time `bson:"timestamp"`
	Source         string    `bson:"source,omitempty"`
	ProcessedAt    time.Time `bson:"processed_at"`
}

// GetEventHistory returns the audit trail of a shipment, most recent first.
func (r *EventRepository) GetEventHistory(ctx context.Context, trackingNumber string) ([]domain.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.db.Collection(collectionStatusEvents).Find(ctx, bson.M{"tracking_number": trackingNumber}, opts)
	if err != nil {
		return nil, fmt.Errorf("find status events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []statusEventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode status events: %w", err)
	}

	out := make([]domain.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.HistoryEntry{
			Status:    domain.ShipmentStatus(d.Status),
			Location:  d.Location,
			Note:      d.Note,
			Timestamp: d.Timestamp,
		})
	}
	return out, nil
}

// ApplyDelta sets the shipment's status and location and appends a history
// entry in a single update.
func (r *EventRepository) ApplyDelta(ctx context.Context, delta domain.Delta) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	if delta.Status != "" {
		set["status"] = string(delta.Status)
	}
	if delta.Location != "" {
		set["current_location"] = delta.Location
	}

	update := bson.M{"$push": bson.M{"status_history": delta.Entry()}}
	if len(set) > 0 {
		update["$set"] = set
	}

	res, err := r.db.Collection(collectionShipments).UpdateOne(ctx, bson.M{"tracking_number": delta.TrackingNumber}, update)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// InsertEvent persists a delta to the status_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, delta domain.Delta, source string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := statusEventDoc{
		TrackingNumber: delta.TrackingNumber,
		Status:         string(delta.Status),
		Location:       delta.Location,
		Note:           delta.Note,
		Timestamp:      delta.Timestamp.UTC(),
		Source:         source,
		ProcessedAt:    time.Now().UTC(),
	}
	_, err := r.db.Collection(collectionStatusEvents).InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the audit trail lookup index.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.db.Collection(collectionStatusEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tracking_number", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

// Backend combines the shipment and event repositories into the full fetch
// contract.
type Backend struct {
	*ShipmentRepository
	*EventRepository
}

var _ ports.ShipmentBackend = Backend{}

func NewBackend(db *mongo.Database) Backend {
	return Backend{
		ShipmentRepository: NewShipmentRepository(db),
		EventRepository:    NewEventRepository(db),
	}
}

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"main/internal/schema"
)

// ErrNoPayload is returned when an envelope without a payload is archived.
var ErrNoPayload = errors.New("archive envelope has no payload")

const (
	defaultHost      = "localhost"
	defaultPort      = 5432
	defaultSSLMode   = "disable"
	defaultBatchSize = 500
)

// Config holds the archive database connection settings.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	BatchSize  int
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

func (c Config) dsn() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.Database != "" {
		u.Path = "/" + c.Database
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Record is the persisted form of one envelope. Payloads are stored as
// JSON and decoded back through the event registry.
type Record struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Seq         uint64 `gorm:"column:seq"`
	EventType   string `gorm:"column:event_type;size:64;index"`
	TimestampNs int64  `gorm:"column:timestamp_ns;index"`
	Priority    uint8  `gorm:"column:priority"`
	Symbol      string `gorm:"column:symbol;size:32;index"`
	Payload     []byte `gorm:"column:payload;type:jsonb"`
}

// TableName sets the archive table name.
func (Record) TableName() string { return "event_records" }

// Store persists recorded envelopes to PostgreSQL for offline research.
type Store struct {
	db        *gorm.DB
	batchSize int
}

// Open connects to the archive database and migrates the schema.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open archive database")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.Wrap(err, "migrate archive schema")
	}

	return &Store{db: db, batchSize: cfg.BatchSize}, nil
}

// OpenDSN connects using a raw connection string.
func OpenDSN(dsn string) (*Store, error) {
	return Open(Config{ConnString: dsn})
}

// Save archives a batch of envelopes.
func (s *Store) Save(ctx context.Context, envelopes []schema.Envelope) error {
	if len(envelopes) == 0 {
		return nil
	}

	records := make([]Record, 0, len(envelopes))
	for _, env := range envelopes {
		rec, err := toRecord(env)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if err := s.db.WithContext(ctx).CreateInBatches(records, s.batchSize).Error; err != nil {
		return errors.Wrap(err, "save archive records")
	}
	return nil
}

// LoadRange returns the archived envelopes with timestamps inside
// [startNs, endNs], ordered ascending by timestamp.
func (s *Store) LoadRange(ctx context.Context, startNs, endNs int64) ([]schema.Envelope, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("timestamp_ns BETWEEN ? AND ?", startNs, endNs).
		Order("timestamp_ns asc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "load archive records")
	}

	out := make([]schema.Envelope, 0, len(records))
	for _, rec := range records {
		env, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// Count returns the number of archived records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count archive records")
	}
	return count, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(env schema.Envelope) (Record, error) {
	if env.Event == nil {
		return Record{}, ErrNoPayload
	}

	payload, err := json.Marshal(env.Event)
	if err != nil {
		return Record{}, errors.Wrapf(err, "marshal archive payload, type: %s", env.Event.EventType())
	}

	rec := Record{
		Seq:         env.ID,
		EventType:   env.Event.EventType(),
		TimestampNs: env.TimestampNs,
		Priority:    env.Priority,
		Payload:     payload,
	}
	if market, ok := env.Event.(schema.MarketEvent); ok {
		rec.Symbol = market.EventSymbol()
	}
	return rec, nil
}

func fromRecord(rec Record) (schema.Envelope, error) {
	event, err := schema.Decode(rec.EventType, rec.Payload)
	if err != nil {
		return schema.Envelope{}, errors.Wrapf(err, "decode archive record, seq: %d", rec.Seq)
	}
	return schema.Envelope{
		ID:          rec.Seq,
		TimestampNs: rec.TimestampNs,
		Priority:    rec.Priority,
		Event:       event,
	}, nil
}

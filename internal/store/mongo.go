package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/catalogd/catalogd/internal/catalog"
)

const (
	collDatabases   = "databases"
	collTables      = "tables"
	collColumns     = "columns"
	collConnections = "connections"

	// writeBatchSize caps one BulkWrite call. Batches commit independently;
	// a failure mid-run leaves earlier batches in place.
	writeBatchSize = 500
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	client   *mongo.Client
	database string
	logger   *slog.Logger
	now      func() time.Time
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and verifies reachability.
func NewMongoStore(ctx context.Context, connectionString, database string, logger *slog.Logger) (*MongoStore, error) {
	opts := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to MongoDB: %v", catalog.ErrConnectivity, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: pinging MongoDB: %v", catalog.ErrConnectivity, err)
	}
	return &MongoStore{
		client:   client,
		database: database,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// EnsureIndexes creates the unique lookup indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll string
		keys bson.D
	}{
		{collDatabases, bson.D{{Key: "tenant", Value: 1}}},
		{collConnections, bson.D{{Key: "tenant", Value: 1}}},
		{collTables, bson.D{{Key: "tenant", Value: 1}, {Key: "schema", Value: 1}, {Key: "name", Value: 1}}},
		{collColumns, bson.D{{Key: "tenant", Value: 1}, {Key: "schema", Value: 1}, {Key: "table", Value: 1}, {Key: "name", Value: 1}}},
	}
	for _, spec := range specs {
		model := mongo.IndexModel{Keys: spec.keys, Options: unique}
		if _, err := s.coll(spec.coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("creating index on %s: %w", spec.coll, err)
		}
	}
	return nil
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}

func (s *MongoStore) DatabaseExists(ctx context.Context, tenant string) (bool, error) {
	n, err := s.coll(collDatabases).CountDocuments(ctx, bson.D{{Key: "tenant", Value: tenant}})
	if err != nil {
		return false, fmt.Errorf("checking database for tenant %s: %w", tenant, err)
	}
	return n > 0, nil
}

func (s *MongoStore) GetDatabase(ctx context.Context, tenant string) (*DatabaseRecord, error) {
	var rec DatabaseRecord
	err := s.coll(collDatabases).FindOne(ctx, bson.D{{Key: "tenant", Value: tenant}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: database for tenant %s", catalog.ErrNotFound, tenant)
	}
	if err != nil {
		return nil, fmt.Errorf("loading database for tenant %s: %w", tenant, err)
	}
	return &rec, nil
}

func (s *MongoStore) PutDatabase(ctx context.Context, rec *DatabaseRecord) error {
	filter := bson.D{{Key: "tenant", Value: rec.Tenant}}
	_, err := s.coll(collDatabases).ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing database for tenant %s: %w", rec.Tenant, err)
	}
	return nil
}

func (s *MongoStore) ListDatabases(ctx context.Context) ([]DatabaseRecord, error) {
	cursor, err := s.coll(collDatabases).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "tenant", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []DatabaseRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding databases: %w", err)
	}
	return recs, nil
}

func (s *MongoStore) DeleteDatabase(ctx context.Context, tenant string) error {
	res, err := s.coll(collDatabases).DeleteOne(ctx, bson.D{{Key: "tenant", Value: tenant}})
	if err != nil {
		return fmt.Errorf("deleting database for tenant %s: %w", tenant, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: database for tenant %s", catalog.ErrNotFound, tenant)
	}
	return nil
}

func (s *MongoStore) ListTables(ctx context.Context, tenant string) ([]TableRecord, error) {
	filter := bson.D{{Key: "tenant", Value: tenant}}
	cursor, err := s.coll(collTables).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "schema", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing tables for tenant %s: %w", tenant, err)
	}
	defer cursor.Close(ctx)

	var recs []TableRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding tables for tenant %s: %w", tenant, err)
	}
	return recs, nil
}

func (s *MongoStore) GetTable(ctx context.Context, tenant, schema, table string) (*TableRecord, error) {
	var rec TableRecord
	err := s.coll(collTables).FindOne(ctx, tableFilter(tenant, schema, table)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	if err != nil {
		return nil, fmt.Errorf("loading table %s.%s: %w", schema, table, err)
	}
	return &rec, nil
}

// PutTables replaces table documents wholesale, creating missing ones. User
// descriptions are dropped; use RefreshTables to preserve them.
func (s *MongoStore) PutTables(ctx context.Context, tenant string, tables []catalog.Table) error {
	now := s.now()
	models := make([]mongo.WriteModel, 0, len(tables))
	for _, t := range tables {
		rec := tableRecordFrom(tenant, t, now)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(tableFilter(tenant, t.Schema, t.Name)).
			SetReplacement(rec).
			SetUpsert(true))
	}
	return s.bulkWrite(ctx, collTables, models)
}

// RefreshTables updates structural fields only, upserting missing documents.
// Existing user descriptions survive untouched.
func (s *MongoStore) RefreshTables(ctx context.Context, tenant string, tables []catalog.Table) error {
	now := s.now()
	models := make([]mongo.WriteModel, 0, len(tables))
	for _, t := range tables {
		update := bson.D{{Key: "$set", Value: bson.D{
			{Key: "rowCount", Value: t.RowCount},
			{Key: "columnCount", Value: t.ColumnCount},
			{Key: "byteSizeMB", Value: t.ByteSizeMB},
			{Key: "sourceComment", Value: t.SourceComment},
			{Key: "updatedAt", Value: now},
		}}}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(tableFilter(tenant, t.Schema, t.Name)).
			SetUpdate(update).
			SetUpsert(true))
	}
	return s.bulkWrite(ctx, collTables, models)
}

func (s *MongoStore) DeleteTable(ctx context.Context, tenant, schema, table string) error {
	res, err := s.coll(collTables).DeleteOne(ctx, tableFilter(tenant, schema, table))
	if err != nil {
		return fmt.Errorf("deleting table %s.%s: %w", schema, table, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	return nil
}

func (s *MongoStore) ListColumns(ctx context.Context, tenant, schema, table string) ([]ColumnRecord, error) {
	filter := bson.D{
		{Key: "tenant", Value: tenant},
		{Key: "schema", Value: schema},
		{Key: "table", Value: table},
	}
	return s.findColumns(ctx, filter)
}

func (s *MongoStore) ListAllColumns(ctx context.Context, tenant string) ([]ColumnRecord, error) {
	return s.findColumns(ctx, bson.D{{Key: "tenant", Value: tenant}})
}

func (s *MongoStore) findColumns(ctx context.Context, filter bson.D) ([]ColumnRecord, error) {
	sort := options.Find().SetSort(bson.D{
		{Key: "schema", Value: 1},
		{Key: "table", Value: 1},
		{Key: "name", Value: 1},
	})
	cursor, err := s.coll(collColumns).Find(ctx, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []ColumnRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding columns: %w", err)
	}
	return recs, nil
}

// PutColumns replaces column documents wholesale, creating missing ones.
func (s *MongoStore) PutColumns(ctx context.Context, tenant string, columns []catalog.Column) error {
	now := s.now()
	models := make([]mongo.WriteModel, 0, len(columns))
	for _, c := range columns {
		rec := columnRecordFrom(tenant, c, now)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(columnFilter(tenant, c.Schema, c.Table, c.Name)).
			SetReplacement(rec).
			SetUpsert(true))
	}
	return s.bulkWrite(ctx, collColumns, models)
}

// RefreshColumns updates structural fields only, upserting missing documents.
// User notes survive untouched.
func (s *MongoStore) RefreshColumns(ctx context.Context, tenant string, columns []catalog.Column) error {
	now := s.now()
	models := make([]mongo.WriteModel, 0, len(columns))
	for _, c := range columns {
		update := bson.D{{Key: "$set", Value: bson.D{
			{Key: "sqlType", Value: c.SQLType},
			{Key: "nullable", Value: c.Nullable},
			{Key: "default", Value: c.Default},
			{Key: "keyRole", Value: c.KeyRole},
			{Key: "sourceComment", Value: c.SourceComment},
			{Key: "updatedAt", Value: now},
		}}}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(columnFilter(tenant, c.Schema, c.Table, c.Name)).
			SetUpdate(update).
			SetUpsert(true))
	}
	return s.bulkWrite(ctx, collColumns, models)
}

func (s *MongoStore) DeleteColumn(ctx context.Context, tenant, schema, table, column string) error {
	res, err := s.coll(collColumns).DeleteOne(ctx, columnFilter(tenant, schema, table, column))
	if err != nil {
		return fmt.Errorf("deleting column %s.%s.%s: %w", schema, table, column, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: column %s.%s.%s", catalog.ErrNotFound, schema, table, column)
	}
	return nil
}

func (s *MongoStore) DeleteTableColumns(ctx context.Context, tenant, schema, table string) error {
	filter := bson.D{
		{Key: "tenant", Value: tenant},
		{Key: "schema", Value: schema},
		{Key: "table", Value: table},
	}
	if _, err := s.coll(collColumns).DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("deleting columns of %s.%s: %w", schema, table, err)
	}
	return nil
}

func (s *MongoStore) SetTableDescription(ctx context.Context, tenant, schema, table, description string) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "userDescription", Value: description}}}}
	res, err := s.coll(collTables).UpdateOne(ctx, tableFilter(tenant, schema, table), update)
	if err != nil {
		return fmt.Errorf("annotating table %s.%s: %w", schema, table, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	return nil
}

func (s *MongoStore) SetColumnNote(ctx context.Context, tenant, schema, table, column, note string) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "userNote", Value: note}}}}
	res, err := s.coll(collColumns).UpdateOne(ctx, columnFilter(tenant, schema, table, column), update)
	if err != nil {
		return fmt.Errorf("annotating column %s.%s.%s: %w", schema, table, column, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: column %s.%s.%s", catalog.ErrNotFound, schema, table, column)
	}
	return nil
}

func (s *MongoStore) PutConnection(ctx context.Context, rec *ConnectionRecord) error {
	filter := bson.D{{Key: "tenant", Value: rec.Tenant}}
	_, err := s.coll(collConnections).ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing connection for tenant %s: %w", rec.Tenant, err)
	}
	return nil
}

func (s *MongoStore) GetConnection(ctx context.Context, tenant string) (*ConnectionRecord, error) {
	var rec ConnectionRecord
	err := s.coll(collConnections).FindOne(ctx, bson.D{{Key: "tenant", Value: tenant}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: connection for tenant %s", catalog.ErrNotFound, tenant)
	}
	if err != nil {
		return nil, fmt.Errorf("loading connection for tenant %s: %w", tenant, err)
	}
	return &rec, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// bulkWrite commits models in fixed-size batches. Each batch commits on its
// own; an error after the first committed batch reports a partial write.
func (s *MongoStore) bulkWrite(ctx context.Context, collection string, models []mongo.WriteModel) error {
	if len(models) == 0 {
		return nil
	}
	coll := s.coll(collection)
	committed := 0
	for start := 0; start < len(models); start += writeBatchSize {
		end := min(start+writeBatchSize, len(models))
		if _, err := coll.BulkWrite(ctx, models[start:end]); err != nil {
			if committed > 0 {
				return fmt.Errorf("%w: %d of %d %s writes committed: %v",
					catalog.ErrPartialWrite, committed, len(models), collection, err)
			}
			return fmt.Errorf("writing %s batch: %w", collection, err)
		}
		committed = end
	}
	s.logger.Debug("bulk write committed", "collection", collection, "writes", committed)
	return nil
}

func tableFilter(tenant, schema, table string) bson.D {
	return bson.D{
		{Key: "tenant", Value: tenant},
		{Key: "schema", Value: schema},
		{Key: "name", Value: table},
	}
}

func columnFilter(tenant, schema, table, column string) bson.D {
	return bson.D{
		{Key: "tenant", Value: tenant},
		{Key: "schema", Value: schema},
		{Key: "table", Value: table},
		{Key: "name", Value: column},
	}
}

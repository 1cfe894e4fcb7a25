package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	document  interfaces.DocumentStorage
	processed interfaces.ProcessedStorage
	run       interfaces.RunStorage
	kv        interfaces.KeyValueStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		document:  NewDocumentStorage(db, logger),
		processed: NewProcessedStorage(db, logger),
		run:       NewRunStorage(db, logger),
		kv:        NewKVStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// DocumentStorage returns the Document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// ProcessedStorage returns the Processed storage interface
func (m *Manager) ProcessedStorage() interfaces.ProcessedStorage {
	return m.processed
}

// RunStorage returns the Run storage interface
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

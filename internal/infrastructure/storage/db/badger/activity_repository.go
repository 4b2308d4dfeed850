package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

type activityRepository struct {
	store *badgerhold.Store

	log func(format string, a ...interface{})
}

// NewActivityRepository returns an activity store persisted on disk with
// badger. An empty baseDir opens an in-memory badger instance.
func NewActivityRepository(
	baseDir string, logger badger.Logger,
) (ports.ActivityRepository, error) {
	var dir string
	if baseDir != "" {
		dir = filepath.Join(baseDir, "activities")
	}
	store, err := createStore(dir, logger)
	if err != nil {
		return nil, err
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("activity repository: %s", format)
		log.Debugf(format, a...)
	}
	return &activityRepository{store, logFn}, nil
}

func (r *activityRepository) AddActivity(
	ctx context.Context, activity domain.BalanceActivity,
) (bool, error) {
	key := activity.ExternalID + "." + activity.ActivitySequence
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxInsert(tx, key, activity)
	} else {
		err = r.store.Insert(key, activity)
	}
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, err
	}
	r.log("recorded activity %s for address %s", key, activity.Address)
	return true, nil
}

func (r *activityRepository) GetActivities(
	ctx context.Context, address, fromSequence, toSequence string,
) ([]domain.BalanceActivity, error) {
	query := badgerhold.Where("Address").Eq(address)
	if fromSequence != "" {
		query = query.And("ActivitySequence").Ge(fromSequence)
	}
	if toSequence != "" {
		query = query.And("ActivitySequence").Le(toSequence)
	}
	query = query.SortBy("ActivitySequence")

	var activities []domain.BalanceActivity
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &activities, query)
	} else {
		err = r.store.Find(&activities, query)
	}
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) Close() error {
	return r.store.Close()
}

func createStore(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

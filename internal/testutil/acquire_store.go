package testutil

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/andrebq/dolist/store/memstore"
	"github.com/andrebq/dolist/store/sqlstore"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireSQLiteStore returns a migrated sqlite store living in a temporary directory
func AcquireSQLiteStore(ctx context.Context, t TestLog, name string) (*sqlstore.Store, func()) {
	dir, err := ioutil.TempDir("", "dolist-tests")
	if err != nil {
		t.Fatal(err)
	}
	abspath := filepath.Join(dir, name+".db")
	st, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, abspath)
	if err != nil {
		t.Fatal(err)
	}
	err = st.Migrate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		err := st.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquirePostgresStore returns a migrated postgres store when
// DOLIST_TEST_POSTGRES_DSN is set, otherwise nil.
//
// Tables are not dropped on cleanup, tests must not depend on them being empty.
func AcquirePostgresStore(ctx context.Context, t TestLog) (*sqlstore.Store, func()) {
	dsn := os.Getenv("DOLIST_TEST_POSTGRES_DSN")
	if dsn == "" {
		return nil, func() {}
	}
	st, err := sqlstore.Open(ctx, sqlstore.DialectPostgres, dsn)
	if err != nil {
		t.Fatal(err)
	}
	err = st.Migrate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		if err := st.Close(); err != nil {
			t.Log("unable to close store", err)
		}
	}
}

func AcquireMemStore(t TestLog) (*memstore.Store, func()) {
	st, err := memstore.New()
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		if err := st.Close(); err != nil {
			t.Log("unable to close store", err)
		}
	}
}

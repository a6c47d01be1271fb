package memstore_test

import (
	"testing"

	"github.com/andrebq/dolist/internal/testutil"
)

func TestUserStore(t *testing.T) {
	st, cleanup := testutil.AcquireMemStore(t)
	defer cleanup()
	testutil.RunUserStoreSuite(t, st)
}

func TestTaskStore(t *testing.T) {
	st, cleanup := testutil.AcquireMemStore(t)
	defer cleanup()
	testutil.RunTaskStoreSuite(t, st)
}

package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/tasks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunUserStoreSuite checks the behaviour every authprogram.UserStore must have
func RunUserStoreSuite(t *testing.T, store authprogram.UserStore) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"
	user := &authprogram.User{ID: uuid.NewString(), Email: email, PasswordHash: "not-a-real-hash"}

	inserted, err := store.Insert(ctx, user)
	require.NoError(t, err)
	require.Equal(t, user.ID, inserted.ID)

	_, err = store.Insert(ctx, &authprogram.User{ID: uuid.NewString(), Email: email, PasswordHash: "other"})
	if !errors.Is(err, authprogram.ErrDuplicateEmail) {
		t.Fatalf("Inserting the same email twice should fail with ErrDuplicateEmail, got %v", err)
	}

	missing, err := store.FindByEmail(ctx, "missing-"+email)
	require.NoError(t, err)
	require.Nil(t, missing)
	missing, err = store.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, missing)

	first := authprogram.TokenEntry{Purpose: authprogram.PurposeAuth, Token: "token-1"}
	second := authprogram.TokenEntry{Purpose: authprogram.PurposeAuth, Token: "token-2"}
	require.NoError(t, store.AppendToken(ctx, user.ID, first))
	require.NoError(t, store.AppendToken(ctx, user.ID, second))

	found, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []authprogram.TokenEntry{first, second}, found.Tokens, "token entries should keep insertion order")

	found, err = store.FindByCredentialLookup(ctx, user.ID, "token-1", authprogram.PurposeAuth)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, email, found.Email)

	found, err = store.FindByCredentialLookup(ctx, user.ID, "token-1", "reset")
	require.NoError(t, err)
	assert.Nil(t, found, "purpose must match as well")

	found, err = store.FindByCredentialLookup(ctx, uuid.NewString(), "token-1", authprogram.PurposeAuth)
	require.NoError(t, err)
	assert.Nil(t, found, "token must belong to the given user")

	require.NoError(t, store.RemoveToken(ctx, user.ID, "token-1"))
	require.NoError(t, store.RemoveToken(ctx, user.ID, "token-1"), "removing an absent token is a no-op")
	found, err = store.FindByCredentialLookup(ctx, user.ID, "token-1", authprogram.PurposeAuth)
	require.NoError(t, err)
	assert.Nil(t, found)
	found, err = store.FindByCredentialLookup(ctx, user.ID, "token-2", authprogram.PurposeAuth)
	require.NoError(t, err)
	assert.NotNil(t, found, "removing one token must keep the others")

	// duplicated entries are removed one at a time
	require.NoError(t, store.AppendToken(ctx, user.ID, second))
	require.NoError(t, store.RemoveToken(ctx, user.ID, "token-2"))
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []authprogram.TokenEntry{second}, found.Tokens)

	require.NoError(t, store.UpdatePassword(ctx, user.ID, "new-hash"))
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)
	assert.Equal(t, []authprogram.TokenEntry{second}, found.Tokens, "password updates must not touch tokens")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.AppendToken(ctx, user.ID, authprogram.TokenEntry{Purpose: authprogram.PurposeAuth, Token: uuid.NewString()})
			if err != nil {
				t.Errorf("concurrent append %v failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, found.Tokens, 11, "concurrent appends must not be lost")

	missingID := uuid.NewString()
	err = store.AppendToken(ctx, missingID, first)
	if !errors.Is(err, authprogram.ErrUserNotFound) {
		t.Fatalf("Appending a token to a missing user should fail with ErrUserNotFound, got %v", err)
	}
	err = store.UpdatePassword(ctx, missingID, "new-hash")
	if !errors.Is(err, authprogram.ErrUserNotFound) {
		t.Fatalf("Updating the password of a missing user should fail with ErrUserNotFound, got %v", err)
	}
	missing, err = store.FindByID(ctx, missingID)
	require.NoError(t, err)
	require.Nil(t, missing)

	// every token is removed twice at the same time
	for _, entry := range found.Tokens {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				if err := store.RemoveToken(ctx, user.ID, token); err != nil {
					t.Errorf("concurrent remove of %v failed: %v", token, err)
				}
			}(entry.Token)
		}
	}
	wg.Wait()
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Tokens, "concurrent removals must neither conflict nor leave entries behind")

	padding := strings.Repeat("x", 200)
	const appends = 300
	for i := 0; i < appends; i++ {
		entry := authprogram.TokenEntry{Purpose: authprogram.PurposeAuth, Token: fmt.Sprintf("bulk-%04d-%v", i, padding)}
		require.NoError(t, store.AppendToken(ctx, user.ID, entry))
	}
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, found.Tokens, appends)
	assert.Equal(t, fmt.Sprintf("bulk-%04d-%v", 0, padding), found.Tokens[0].Token)
	assert.Equal(t, fmt.Sprintf("bulk-%04d-%v", appends-1, padding), found.Tokens[appends-1].Token)
	found, err = store.FindByCredentialLookup(ctx, user.ID, fmt.Sprintf("bulk-%04d-%v", appends/2, padding), authprogram.PurposeAuth)
	require.NoError(t, err)
	assert.NotNil(t, found)

	require.NoError(t, store.DeleteUser(ctx, user.ID))
	require.NoError(t, store.DeleteUser(ctx, user.ID), "deleting a missing user is a no-op")
	missing, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = store.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = store.FindByCredentialLookup(ctx, user.ID, fmt.Sprintf("bulk-%04d-%v", 0, padding), authprogram.PurposeAuth)
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, err = store.Insert(ctx, &authprogram.User{ID: uuid.NewString(), Email: email, PasswordHash: "again"})
	require.NoError(t, err, "email of a deleted user can be used again")
}

// RunTaskStoreSuite checks the behaviour every tasks.Store must have,
// the store must not contain any task when called.
func RunTaskStoreSuite(t *testing.T, store tasks.Store) {
	ctx := context.Background()
	base := time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := tasks.New("first task", "the very first description", base)
	require.NoError(t, err)
	second, err := tasks.New("second task", "the second description", base.Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, store.CreateTask(ctx, second))
	require.NoError(t, store.CreateTask(ctx, first))

	all, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "tasks are listed by creation time")
	assert.Equal(t, second.ID, all[1].ID)
	assert.True(t, first.CreatedAt.Equal(all[0].CreatedAt))

	title := "first task, updated"
	require.NoError(t, first.Apply(tasks.Patch{Title: &title}))
	require.NoError(t, store.UpdateTask(ctx, first))
	got, err := store.GetTask(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)

	_, err = store.GetTask(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, tasks.ErrNotFound))
	ghost := *first
	ghost.ID = uuid.NewString()
	assert.True(t, errors.Is(store.UpdateTask(ctx, &ghost), tasks.ErrNotFound))
	assert.True(t, errors.Is(store.DeleteTask(ctx, ghost.ID), tasks.ErrNotFound))

	require.NoError(t, store.DeleteTask(ctx, first.ID))
	all, err = store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	n, err := store.DeleteAllTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	all, err = store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

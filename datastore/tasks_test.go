package datastore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakonic/taskdeck/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateTask(t *testing.T, repo *TaskRepository, owner models.Owner, title string) *models.Task {
	t.Helper()
	task, err := repo.Create(context.Background(), owner, title, "")
	require.NoError(t, err)
	return task
}

func newTestUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).Create(context.Background(), email, "hash")
	require.NoError(t, err)
	return user
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("guest-token")

	created, err := repo.Create(context.Background(), owner, "  Buy milk  ", "  2%  ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title, "title is trimmed")
	assert.Equal(t, "2%", created.Notes)
	assert.False(t, created.Completed)
	require.NotNil(t, created.GuestID)
	assert.Equal(t, "guest-token", *created.GuestID)
	assert.Nil(t, created.UserID)

	got, err := repo.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Buy milk", got.Title)
}

func TestTaskRepository_Create_UserOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := newTestUser(t, db, "a@example.com")

	created, err := repo.Create(context.Background(), models.UserOwner(user.ID), "Report", "")
	require.NoError(t, err)
	require.NotNil(t, created.UserID)
	assert.Equal(t, user.ID, *created.UserID)
	assert.Nil(t, created.GuestID)
}

func TestTaskRepository_Create_EmptyTitle(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := repo.Create(context.Background(), owner, title, "notes")
		assert.ErrorIs(t, err, ErrEmptyTitle)
	}

	page, err := repo.List(context.Background(), owner, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "nothing persisted")
}

func TestTaskRepository_OwnerIsolation(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := newTestUser(t, db, "a@example.com")

	userOwner := models.UserOwner(user.ID)
	guestA := models.GuestOwner("token-a")
	guestB := models.GuestOwner("token-b")

	userTask := mustCreateTask(t, repo, userOwner, "users task")
	guestTask := mustCreateTask(t, repo, guestA, "guest a task")

	// Get under the wrong owner is indistinguishable from a miss.
	_, err := repo.Get(context.Background(), guestA, userTask.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(context.Background(), guestB, guestTask.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(context.Background(), userOwner, guestTask.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// List never crosses owners either.
	page, err := repo.List(context.Background(), guestB, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)

	page, err = repo.List(context.Background(), guestA, ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, guestTask.ID, page.Tasks[0].ID)

	// Neither do mutations.
	_, err = repo.Update(context.Background(), guestB, guestTask.ID, "stolen", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ToggleCompleted(context.Background(), guestB, guestTask.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	err = repo.Delete(context.Background(), guestB, guestTask.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.Get(context.Background(), guestA, guestTask.ID)
	require.NoError(t, err)
	assert.Equal(t, "guest a task", got.Title)
	assert.False(t, got.Completed)
}

func TestTaskRepository_List_Filter(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	open := mustCreateTask(t, repo, owner, "open")
	done := mustCreateTask(t, repo, owner, "done")
	_, err := repo.ToggleCompleted(context.Background(), owner, done.ID)
	require.NoError(t, err)

	page, err := repo.List(context.Background(), owner, ListQuery{Filter: FilterActive})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, open.ID, page.Tasks[0].ID)

	page, err = repo.List(context.Background(), owner, ListQuery{Filter: FilterCompleted})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, done.ID, page.Tasks[0].ID)

	page, err = repo.List(context.Background(), owner, ListQuery{Filter: FilterAll})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)

	// Unrecognized filters behave as "all".
	page, err = repo.List(context.Background(), owner, ListQuery{Filter: "bogus"})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)
}

func TestTaskRepository_List_Search(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	byTitle := mustCreateTask(t, repo, owner, "Foobar")
	byNotes, err := repo.Create(context.Background(), owner, "bar", "has foo in notes")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), owner, "bar", "baz")
	require.NoError(t, err)

	page, err := repo.List(context.Background(), owner, ListQuery{Search: "foo"})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	ids := []int64{page.Tasks[0].ID, page.Tasks[1].ID}
	assert.ElementsMatch(t, []int64{byTitle.ID, byNotes.ID}, ids)

	// Case-insensitive.
	page, err = repo.List(context.Background(), owner, ListQuery{Search: "FOO"})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)

	// Empty search applies no constraint.
	page, err = repo.List(context.Background(), owner, ListQuery{Search: "   "})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 3)
}

func TestTaskRepository_List_Sort(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	mustCreateTask(t, repo, owner, "bravo")
	mustCreateTask(t, repo, owner, "alpha")
	mustCreateTask(t, repo, owner, "charlie")

	titles := func(page *TaskPage) []string {
		out := make([]string, 0, len(page.Tasks))
		for _, task := range page.Tasks {
			out = append(out, task.Title)
		}
		return out
	}

	page, err := repo.List(context.Background(), owner, ListQuery{Sort: SortTitleAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, titles(page))

	page, err = repo.List(context.Background(), owner, ListQuery{Sort: SortTitleDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "bravo", "alpha"}, titles(page))

	page, err = repo.List(context.Background(), owner, ListQuery{Sort: SortCreatedAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "alpha", "charlie"}, titles(page))

	// Most recent first; id breaks creation-time ties.
	page, err = repo.List(context.Background(), owner, ListQuery{Sort: SortCreatedDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, titles(page))

	// Unrecognized sorts behave as created_desc.
	page, err = repo.List(context.Background(), owner, ListQuery{Sort: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, titles(page))
}

func TestTaskRepository_List_Pagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	for i := 0; i < 12; i++ {
		mustCreateTask(t, repo, owner, "task")
	}

	page, err := repo.List(context.Background(), owner, ListQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, TasksPerPage, page.PerPage)
	assert.Len(t, page.Tasks, 5)

	page, err = repo.List(context.Background(), owner, ListQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)

	page, err = repo.List(context.Background(), owner, ListQuery{Page: 3})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)
}

func TestTaskRepository_List_PageClamping(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	for i := 0; i < 12; i++ {
		mustCreateTask(t, repo, owner, "task")
	}

	// Below range clamps to the first page.
	page, err := repo.List(context.Background(), owner, ListQuery{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Tasks, 5)

	// Past the end clamps to the last page with content.
	page, err = repo.List(context.Background(), owner, ListQuery{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Tasks, 2)
}

func TestTaskRepository_List_Empty(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)

	page, err := repo.List(context.Background(), models.GuestOwner("g"), ListQuery{Page: 7})
	require.NoError(t, err)
	assert.NotNil(t, page.Tasks)
	assert.Empty(t, page.Tasks)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestTaskRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	task := mustCreateTask(t, repo, owner, "before")
	_, err := repo.ToggleCompleted(context.Background(), owner, task.ID)
	require.NoError(t, err)

	updated, err := repo.Update(context.Background(), owner, task.ID, " after ", " new notes ")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "new notes", updated.Notes)
	assert.True(t, updated.Completed, "completion state untouched by update")
	assert.Equal(t, task.CreatedAt.Unix(), updated.CreatedAt.Unix(), "creation time untouched by update")

	_, err = repo.Update(context.Background(), owner, task.ID, "  ", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = repo.Update(context.Background(), owner, task.ID+1000, "title", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_ToggleCompleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	task := mustCreateTask(t, repo, owner, "flip me")

	toggled, err := repo.ToggleCompleted(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	// A toggle pair restores the original state.
	toggled, err = repo.ToggleCompleted(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	_, err = repo.ToggleCompleted(context.Background(), owner, task.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	owner := models.GuestOwner("g")

	task := mustCreateTask(t, repo, owner, "doomed")

	require.NoError(t, repo.Delete(context.Background(), owner, task.ID))

	_, err := repo.Get(context.Background(), owner, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Delete(context.Background(), owner, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_ClaimGuestTasks(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := newTestUser(t, db, "claimer@example.com")

	claimedGuest := models.GuestOwner("token-claimed")
	otherGuest := models.GuestOwner("token-other")

	mustCreateTask(t, repo, claimedGuest, "mine 1")
	mustCreateTask(t, repo, claimedGuest, "mine 2")
	bystander := mustCreateTask(t, repo, otherGuest, "not mine")

	claimed, err := repo.ClaimGuestTasks(context.Background(), "token-claimed", user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, claimed)

	// The user now owns both tasks; the old token owns nothing.
	page, err := repo.List(context.Background(), models.UserOwner(user.ID), ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	for _, task := range page.Tasks {
		require.NotNil(t, task.UserID)
		assert.Equal(t, user.ID, *task.UserID)
		assert.Nil(t, task.GuestID)
	}

	page, err = repo.List(context.Background(), claimedGuest, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)

	// Other guests are untouched.
	got, err := repo.Get(context.Background(), otherGuest, bystander.ID)
	require.NoError(t, err)
	require.NotNil(t, got.GuestID)
	assert.Equal(t, "token-other", *got.GuestID)

	// Retrying the same claim matches nothing.
	claimed, err = repo.ClaimGuestTasks(context.Background(), "token-claimed", user.ID)
	require.NoError(t, err)
	assert.Zero(t, claimed)
}

func TestTaskRepository_ClaimGuestTasks_EmptyToken(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := newTestUser(t, db, "claimer@example.com")

	claimed, err := repo.ClaimGuestTasks(context.Background(), "", user.ID)
	require.NoError(t, err)
	assert.Zero(t, claimed)
}

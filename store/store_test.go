package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/uhppoted-app-tasks/cache"
	"github.com/uhppoted/uhppoted-app-tasks/memory"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

var taskHeader = []string{"ID", "Título", "Descripción", "Usuario Asignado", "Categoría", "Fecha Límite", "Estado", "Avance (%)"}

type counting struct {
	store.Backend
	reads int
}

func (c *counting) Rows(ctx context.Context, tab string) ([][]string, error) {
	c.reads++
	return c.Backend.Rows(ctx, tab)
}

// blocking holds every tab read until released or until the read's own context is cancelled.
type blocking struct {
	store.Backend
	started chan struct{}
	release chan struct{}
}

func (b *blocking) Rows(ctx context.Context, tab string) ([][]string, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return b.Backend.Rows(ctx, tab)
	}
}

// shifting simulates another user inserting a row above the located row between the lookup and
// the verification read.
type shifting struct {
	*memory.Workbook
	shifts int
}

func (s *shifting) Row(ctx context.Context, tab string, row int) ([]string, error) {
	if s.shifts > 0 {
		s.shifts--
		rows, _ := s.Workbook.Rows(ctx, tab)
		s.Workbook.AddTab(tab, append([][]string{rows[0], {"X", "inserted"}}, rows[1:]...)...)
	}

	return s.Workbook.Row(ctx, tab, row)
}

func setup(rows ...[]string) (*store.Store, *memory.Workbook) {
	w := memory.NewWorkbook("Categorias", "Usuarios", "Comentarios")
	w.AddTab("Tareas", append([][]string{taskHeader}, rows...)...)

	ids := 0
	s := store.New(w, cache.NewCache(), store.DefaultTabs, store.DefaultTTL).
		WithIDs(func() string {
			ids++
			return fmt.Sprintf("ID%03d", ids)
		}).
		WithClock(func() time.Time {
			return time.Date(2024, time.January, 10, 9, 15, 0, 0, time.Local)
		})

	return s, w
}

func TestSaveNewTaskThenReload(t *testing.T) {
	s, w := setup()
	ctx := context.Background()

	_, err := s.LoadTasks(ctx)
	require.NoError(t, err)

	saved, err := s.SaveNewTask(ctx, model.Task{
		Title:    "Write report",
		Assignee: "Ana",
		Category: "Admin",
		Due:      model.ParseDate("2024-01-10"),
		Status:   model.ParseStatus("Pending"),
		Progress: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "ID001", saved.ID)

	tasks, err := s.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	expected := model.Task{
		ID:       "ID001",
		Title:    "Write report",
		Assignee: "Ana",
		Category: "Admin",
		Due:      model.ParseDate("2024-01-10"),
		Status:   model.Pending,
		Progress: 0,
	}

	if diff := cmp.Diff(expected, tasks[0]); diff != "" {
		t.Errorf("incorrect task (-expected +got):\n%s", diff)
	}

	rows, _ := w.Rows(ctx, "Tareas")
	assert.Equal(t, []string{"ID001", "Write report", "", "Ana", "Admin", "2024-01-10", "Pendiente", "0"}, rows[1])
}

func TestSaveNewTaskWritesHeaderToEmptyTab(t *testing.T) {
	w := memory.NewWorkbook("Tareas")
	s := store.New(w, nil, store.DefaultTabs, store.DefaultTTL)
	ctx := context.Background()

	_, err := s.SaveNewTask(ctx, model.Task{Title: "Plan sprint"})
	require.NoError(t, err)

	rows, _ := w.Rows(ctx, "Tareas")
	require.Len(t, rows, 2)
	assert.Equal(t, taskHeader, rows[0])
	assert.NotEmpty(t, rows[1][0], "expected generated ID")
	assert.Equal(t, "Pendiente", rows[1][6])
}

func TestSaveNewTaskWithMismatchedHeader(t *testing.T) {
	w := memory.NewWorkbook()
	w.AddTab("Tareas", []string{"ID", "Descripción", "Título"})

	s := store.New(w, nil, store.DefaultTabs, store.DefaultTTL)

	_, err := s.SaveNewTask(context.Background(), model.Task{Title: "Plan sprint"})
	assert.ErrorIs(t, err, store.ErrHeaderMismatch)

	rows, _ := w.Rows(context.Background(), "Tareas")
	assert.Len(t, rows, 1, "nothing should have been appended")
}

func TestSaveNewTaskRequiresTitle(t *testing.T) {
	s, _ := setup()

	_, err := s.SaveNewTask(context.Background(), model.Task{Assignee: "Ana"})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestUpdateTaskChangesOnlyTargetRow(t *testing.T) {
	s, w := setup(
		[]string{"T1", "One", "", "Ana", "Admin", "2024-01-01", "Pendiente", "0"},
		[]string{"T2", "Two", "", "Luis", "Ventas", "2024-01-02", "Pendiente", "10"},
		[]string{"T3", "Three", "", "Ana", "Admin", "2024-01-03", "En Proceso", "50"},
	)
	ctx := context.Background()

	err := s.UpdateTask(ctx, "T2", model.Task{
		Title:    "Two (revised)",
		Assignee: "Ana",
		Category: "Ventas",
		Due:      model.ParseDate("2024-02-01"),
		Status:   model.Done,
		Progress: 100,
	})
	require.NoError(t, err)

	rows, _ := w.Rows(ctx, "Tareas")
	assert.Equal(t, []string{"T1", "One", "", "Ana", "Admin", "2024-01-01", "Pendiente", "0"}, rows[1])
	assert.Equal(t, []string{"T2", "Two (revised)", "", "Ana", "Ventas", "2024-02-01", "Terminada", "100"}, rows[2])
	assert.Equal(t, []string{"T3", "Three", "", "Ana", "Admin", "2024-01-03", "En Proceso", "50"}, rows[3])
}

func TestUpdateTaskKeepsStatusWhenBlank(t *testing.T) {
	s, w := setup(
		[]string{"T1", "One", "", "Ana", "Admin", "2024-01-01", "En Proceso", "40"},
	)
	ctx := context.Background()

	require.NoError(t, s.UpdateTask(ctx, "T1", model.Task{Title: "Uno", Progress: 45}))

	rows, _ := w.Rows(ctx, "Tareas")
	assert.Equal(t, "En Proceso", rows[1][6])
	assert.Equal(t, "45", rows[1][7])
}

func TestUpdateTaskNotFound(t *testing.T) {
	s, _ := setup(
		[]string{"T1", "One", "", "Ana", "Admin", "2024-01-01", "Pendiente", "0"},
	)

	err := s.UpdateTask(context.Background(), "T9", model.Task{Title: "Nine"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTaskRemovesExactlyOneRow(t *testing.T) {
	s, w := setup(
		[]string{"T1", "One", "", "Ana", "Admin", "", "Pendiente", "0"},
		[]string{"T2", "Two", "", "Ana", "Admin", "", "Pendiente", "0"},
		[]string{"T3", "Three", "", "Ana", "Admin", "", "Pendiente", "0"},
	)
	ctx := context.Background()

	require.NoError(t, s.DeleteTask(ctx, "T2"))

	rows, _ := w.Rows(ctx, "Tareas")
	require.Len(t, rows, 3)
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "T3", rows[2][0])

	assert.ErrorIs(t, s.DeleteTask(ctx, "T2"), store.ErrNotFound)
}

func TestDuplicateIdentifiersAffectFirstMatchOnly(t *testing.T) {
	s, w := setup(
		[]string{"T1", "First", "", "Ana", "Admin", "", "Pendiente", "0"},
		[]string{"T2", "Other", "", "Ana", "Admin", "", "Pendiente", "0"},
		[]string{"T1", "Second", "", "Ana", "Admin", "", "Pendiente", "0"},
	)
	ctx := context.Background()

	require.NoError(t, s.UpdateTask(ctx, "T1", model.Task{Title: "Updated"}))

	rows, _ := w.Rows(ctx, "Tareas")
	assert.Equal(t, "Updated", rows[1][1])
	assert.Equal(t, "Second", rows[3][1])

	require.NoError(t, s.DeleteTask(ctx, "T1"))

	rows, _ = w.Rows(ctx, "Tareas")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"T2", "T1"}, []string{rows[1][0], rows[2][0]})
	assert.Equal(t, "Second", rows[2][1])
}

func TestLoadIsCachedUntilWrite(t *testing.T) {
	w := memory.NewWorkbook("Categorias")
	backend := &counting{Backend: w}
	s := store.New(backend, cache.NewCache(), store.DefaultTabs, store.DefaultTTL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.LoadCategories(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, backend.reads)

	require.NoError(t, s.SaveNewCategory(ctx, model.Category{Name: "Admin"}))
	reads := backend.reads

	categories, err := s.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "Admin"}}, categories)
	assert.Equal(t, reads+1, backend.reads, "write should have cleared the cache")
}

func TestWriteInvalidatesAllEntities(t *testing.T) {
	s, w := setup()
	ctx := context.Background()

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	// edited directly in the spreadsheet: not visible until the cache is cleared
	w.AddTab("Usuarios", []string{"Nombre", "Edad", "URL_Foto_Perfil"}, []string{"Ana", "34", ""})

	users, _ = s.LoadUsers(ctx)
	assert.Empty(t, users)

	require.NoError(t, s.SaveNewCategory(ctx, model.Category{Name: "Admin"}))

	users, err = s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{{Name: "Ana", Age: 34}}, users)
}

func TestMissingTab(t *testing.T) {
	s := store.New(memory.NewWorkbook(), nil, store.DefaultTabs, store.DefaultTTL)

	_, err := s.LoadTasks(context.Background())
	assert.ErrorIs(t, err, store.ErrTabNotFound)
}

func TestTabNamesAreMatchedTolerantly(t *testing.T) {
	w := memory.NewWorkbook()
	w.AddTab("categorías", []string{"Nombre"}, []string{"Admin"})

	s := store.New(w, nil, store.DefaultTabs, store.DefaultTTL)

	categories, err := s.LoadCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "Admin"}}, categories)
}

func TestUpdateFollowsShiftedRow(t *testing.T) {
	w := memory.NewWorkbook()
	w.AddTab("Tareas", taskHeader, []string{"T1", "One", "", "", "", "", "Pendiente", "0"})

	backend := &shifting{Workbook: w, shifts: 1}
	s := store.New(backend, nil, store.DefaultTabs, store.DefaultTTL)
	ctx := context.Background()

	require.NoError(t, s.UpdateTask(ctx, "T1", model.Task{Title: "Uno"}))

	rows, _ := w.Rows(ctx, "Tareas")
	require.Len(t, rows, 3)
	assert.Equal(t, "inserted", rows[1][1], "concurrently inserted row should be untouched")
	assert.Equal(t, "Uno", rows[2][1])
}

func TestUpdateConflict(t *testing.T) {
	w := memory.NewWorkbook()
	w.AddTab("Tareas", taskHeader, []string{"T1", "One", "", "", "", "", "Pendiente", "0"})

	backend := &shifting{Workbook: w, shifts: 2}
	s := store.New(backend, nil, store.DefaultTabs, store.DefaultTTL)

	err := s.UpdateTask(context.Background(), "T1", model.Task{Title: "Uno"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUsersAndCategories(t *testing.T) {
	s, w := setup()
	ctx := context.Background()

	require.NoError(t, s.SaveNewUser(ctx, model.User{Name: "Ana", Age: 34, PhotoURL: "https://example.com/ana.png"}))
	require.NoError(t, s.SaveNewUser(ctx, model.User{Name: "Luis", Age: 29}))

	rows, _ := w.Rows(ctx, "Usuarios")
	assert.Equal(t, [][]string{
		{"Nombre", "Edad", "URL_Foto_Perfil"},
		{"Ana", "34", "https://example.com/ana.png"},
		{"Luis", "29", ""},
	}, rows)

	require.NoError(t, s.UpdateUser(ctx, "Luis", model.User{Age: 30, PhotoURL: "https://example.com/luis.png"}))
	require.NoError(t, s.DeleteUser(ctx, "Ana"))

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{{Name: "Luis", Age: 30, PhotoURL: "https://example.com/luis.png"}}, users)

	require.NoError(t, s.SaveNewCategory(ctx, model.Category{Name: "Admin"}))
	require.NoError(t, s.UpdateCategory(ctx, "Admin", model.Category{Name: "Administración"}))

	categories, err := s.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "Administración"}}, categories)

	require.NoError(t, s.DeleteCategory(ctx, "Administración"))
	assert.ErrorIs(t, s.DeleteCategory(ctx, "Administración"), store.ErrNotFound)
}

func TestComments(t *testing.T) {
	s, _ := setup()
	ctx := context.Background()

	c, err := s.SaveNewComment(ctx, model.Comment{TaskID: "T1", Author: "Ana", Text: "Started"})
	require.NoError(t, err)
	assert.Equal(t, "ID001", c.ID)
	assert.Equal(t, "2024-01-10 09:15:00", model.FormatTimestamp(c.Timestamp))

	_, err = s.SaveNewComment(ctx, model.Comment{TaskID: "T2", Author: "Luis", Text: "Blocked"})
	require.NoError(t, err)

	_, err = s.SaveNewComment(ctx, model.Comment{TaskID: "T1", Author: "Luis", Text: "Reviewed"})
	require.NoError(t, err)

	grouped, err := s.CommentsByTask(ctx)
	require.NoError(t, err)
	require.Len(t, grouped["T1"], 2)
	assert.Equal(t, "Started", grouped["T1"][0].Text)
	assert.Equal(t, "Reviewed", grouped["T1"][1].Text)

	require.NoError(t, s.UpdateComment(ctx, "ID001", model.Comment{TaskID: "T1", Author: "Ana", Text: "Started (edited)"}))
	require.NoError(t, s.DeleteComment(ctx, "ID002"))

	comments, err := s.LoadComments(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Started (edited)", comments[0].Text)
	assert.Equal(t, "2024-01-10 09:15:00", model.FormatTimestamp(comments[0].Timestamp))

	_, err = s.SaveNewComment(ctx, model.Comment{TaskID: "T1"})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

type failing struct {
	store.Backend
}

func (f failing) Append(ctx context.Context, tab string, values []string) error {
	return errors.New("quota exceeded")
}

func TestFailedWriteKeepsCache(t *testing.T) {
	w := memory.NewWorkbook()
	w.AddTab("Categorias", []string{"Nombre"}, []string{"Admin"})

	c := cache.NewCache()
	s := store.New(failing{w}, c, store.DefaultTabs, store.DefaultTTL)
	ctx := context.Background()

	_, err := s.LoadCategories(ctx)
	require.NoError(t, err)

	err = s.SaveNewCategory(ctx, model.Category{Name: "Ventas"})
	assert.Error(t, err)
	assert.Equal(t, 1, c.Size())
}

func TestImport(t *testing.T) {
	s, w := setup(
		[]string{"T1", "One", "", "Ana", "Admin", "2024-01-01", "Pendiente", "0"},
	)
	ctx := context.Background()

	records := []model.Record{
		{"Título": "Write report", "Estado": "done", "Avance (%)": "120"},
		{"ID": "T7", "Título": "Review budget", "Fecha Límite": "15/01/2024"},
	}

	n, err := s.Import(ctx, store.Tasks, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, _ := w.Rows(ctx, "Tareas")
	assert.Equal(t, [][]string{
		taskHeader,
		{"T1", "One", "", "Ana", "Admin", "2024-01-01", "Pendiente", "0"},
		{"ID001", "Write report", "", "", "", "", "Terminada", "100"},
		{"T7", "Review budget", "", "", "", "2024-01-15", "Pendiente", "0"},
	}, rows)
}

func TestImportWithInvalidRecord(t *testing.T) {
	s, w := setup()
	ctx := context.Background()

	_, err := s.Import(ctx, store.Users, []model.Record{{"Nombre": "Ana"}, {"Edad": "29"}})
	assert.ErrorIs(t, err, store.ErrInvalid)

	rows, _ := w.Rows(ctx, "Usuarios")
	assert.Empty(t, rows)
}

func TestEntity(t *testing.T) {
	s, _ := setup()

	entity, err := s.Entity("categorías")
	require.NoError(t, err)
	assert.Equal(t, store.Categories, entity)

	_, err = s.Entity("Resumen")
	assert.ErrorIs(t, err, store.ErrTabNotFound)
}

func TestConcurrentLoadWithCancelledCaller(t *testing.T) {
	_, w := setup([]string{"T1", "One", "", "Ana", "Admin", "", "Pendiente", "0"})
	backend := &blocking{
		Backend: w,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}

	s := store.New(backend, cache.NewCache(), store.DefaultTabs, store.DefaultTTL)
	ctx, cancel := context.WithCancel(context.Background())

	first := make(chan error, 1)
	go func() {
		_, err := s.LoadTasks(ctx)
		first <- err
	}()

	<-backend.started

	type result struct {
		tasks []model.Task
		err   error
	}

	second := make(chan result, 1)
	go func() {
		tasks, err := s.LoadTasks(context.Background())
		second <- result{tasks, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-first, context.Canceled)

	close(backend.release)

	r := <-second
	require.NoError(t, r.err)
	require.Len(t, r.tasks, 1)
	assert.Equal(t, "T1", r.tasks[0].ID)
}

func TestGeneratedIdentifiersAreUUIDs(t *testing.T) {
	w := memory.NewWorkbook("Tareas", "Comentarios")
	s := store.New(w, nil, store.DefaultTabs, store.DefaultTTL)
	ctx := context.Background()

	task, err := s.SaveNewTask(ctx, model.Task{Title: "Write report"})
	require.NoError(t, err)

	comment, err := s.SaveNewComment(ctx, model.Comment{TaskID: task.ID, Author: "Ana", Text: "Started"})
	require.NoError(t, err)

	for _, id := range []string{task.ID, comment.ID} {
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "identifier %q", id)
	}

	assert.NotEqual(t, task.ID, comment.ID)
}

func TestInvalidate(t *testing.T) {
	s, w := setup()
	ctx := context.Background()

	tasks, err := s.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, w.Append(ctx, "Tareas", []string{"T1", "One", "", "", "", "", "Pendiente", "0"}))

	tasks, err = s.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "expected cached (stale) tasks")

	s.Invalidate()

	tasks, err = s.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "One", tasks[0].Title)
}

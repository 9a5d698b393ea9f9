package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/report"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

const PlaceholderPhoto = "https://static.streamlit.io/examples/cat.jpg"
const DefaultAssignee = "Admin"

type page struct {
	Title  string
	Active string
	Flash  *Flash
	Error  string
}

type taskView struct {
	model.Task
	Colour   string
	Overdue  bool
	Comments []model.Comment
}

type userView struct {
	model.User
	Photo string
}

func (s *Server) page(w http.ResponseWriter, rq *http.Request, active string) page {
	return page{
		Title:  Title,
		Active: active,
		Flash:  flash(w, rq),
	}
}

func (s *Server) inicio(w http.ResponseWriter, rq *http.Request) {
	ctx := rq.Context()
	data := struct {
		page
		Tasks      []taskView
		Total      int
		Categories []model.Category
		Colours    map[string]string
		Assignees  []string
		Statuses   []model.Status
		Today      string
		Message    string
	}{
		page:     s.page(w, rq, "inicio"),
		Statuses: model.Statuses,
		Today:    model.FormatDate(s.now()),
	}

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los datos iniciales", err)
		s.render(w, "inicio.html", data)
		return
	}

	categories, err := s.store.LoadCategories(ctx)
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los datos iniciales", err)
		s.render(w, "inicio.html", data)
		return
	}

	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los datos iniciales", err)
		s.render(w, "inicio.html", data)
		return
	}

	comments, err := s.store.CommentsByTask(ctx)
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los comentarios", err)
		comments = map[string][]model.Comment{}
	}

	data.Categories = categories
	data.Colours = model.CategoryColours(categories)
	data.Assignees = assignees(users)
	data.Total = len(tasks)

	today := s.now()
	for _, t := range tasks {
		if !t.Status.Done() {
			data.Tasks = append(data.Tasks, taskView{
				Task:     t,
				Colour:   model.Colour(data.Colours, t.Category),
				Overdue:  t.Overdue(today),
				Comments: comments[t.ID],
			})
		}
	}

	switch {
	case data.Total == 0:
		data.Message = "No hay tareas registradas. ¡Añade la primera!"
	case len(data.Tasks) == 0:
		data.Message = "¡Felicidades! No hay tareas pendientes."
	}

	s.render(w, "inicio.html", data)
}

func (s *Server) addTask(w http.ResponseWriter, rq *http.Request) {
	task := taskForm(rq)

	if task.Title == "" || task.Assignee == "" || task.Category == "" {
		redirect(w, rq, "/inicio", FlashWarning, "El título, usuario y categoría son obligatorios.")
		return
	}

	if task.Status == "" {
		task.Status = model.Pending
	}

	if _, err := s.store.SaveNewTask(rq.Context(), task); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo guardar la tarea", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, "¡Tarea guardada con éxito!")
}

func (s *Server) editTask(w http.ResponseWriter, rq *http.Request) {
	ctx := rq.Context()
	id := rq.PathValue("id")

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		s.failed(w, rq, "/inicio", "No se pudo cargar la tarea", err)
		return
	}

	data := struct {
		page
		Task       *model.Task
		Categories []model.Category
		Assignees  []string
		Statuses   []model.Status
	}{
		page:     s.page(w, rq, "inicio"),
		Task:     task,
		Statuses: model.Statuses,
	}

	if users, err := s.store.LoadUsers(ctx); err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los usuarios", err)
	} else {
		data.Assignees = assignees(users)
	}

	if categories, err := s.store.LoadCategories(ctx); err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar las categorías", err)
	} else {
		data.Categories = categories
	}

	s.render(w, "edit.html", data)
}

func (s *Server) updateTask(w http.ResponseWriter, rq *http.Request) {
	id := rq.PathValue("id")
	task := taskForm(rq)

	if task.Title == "" {
		redirect(w, rq, edit(id), FlashWarning, "El título es obligatorio.")
		return
	}

	if err := s.store.UpdateTask(rq.Context(), id, task); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo actualizar la tarea", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, "Tarea actualizada correctamente.")
}

func (s *Server) deleteTask(w http.ResponseWriter, rq *http.Request) {
	if err := s.store.DeleteTask(rq.Context(), rq.PathValue("id")); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo eliminar la tarea", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, "Tarea eliminada.")
}

func (s *Server) addComment(w http.ResponseWriter, rq *http.Request) {
	comment := model.Comment{
		TaskID: rq.PathValue("id"),
		Author: clean(rq.FormValue("autor")),
		Text:   clean(rq.FormValue("comentario")),
	}

	if comment.Author == "" || comment.Text == "" {
		redirect(w, rq, "/inicio", FlashWarning, "El autor y el comentario son obligatorios.")
		return
	}

	if _, err := s.store.SaveNewComment(rq.Context(), comment); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo guardar el comentario", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, "Comentario añadido.")
}

func (s *Server) deleteComment(w http.ResponseWriter, rq *http.Request) {
	if err := s.store.DeleteComment(rq.Context(), rq.PathValue("id")); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo eliminar el comentario", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, "Comentario eliminado.")
}

func (s *Server) addCategory(w http.ResponseWriter, rq *http.Request) {
	category := model.Category{
		Name: clean(rq.FormValue("nombre")),
	}

	if category.Name == "" {
		redirect(w, rq, "/inicio", FlashWarning, "El nombre de la categoría es obligatorio.")
		return
	}

	if err := s.store.SaveNewCategory(rq.Context(), category); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo guardar la categoría", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, fmt.Sprintf("Categoría '%v' añadida.", category.Name))
}

func (s *Server) deleteCategory(w http.ResponseWriter, rq *http.Request) {
	name := rq.PathValue("name")

	if err := s.store.DeleteCategory(rq.Context(), name); err != nil {
		s.failed(w, rq, "/inicio", "No se pudo eliminar la categoría", err)
		return
	}

	redirect(w, rq, "/inicio", FlashInfo, fmt.Sprintf("Categoría '%v' eliminada.", name))
}

func (s *Server) usuarios(w http.ResponseWriter, rq *http.Request) {
	data := struct {
		page
		Users []userView
	}{
		page: s.page(w, rq, "usuarios"),
	}

	users, err := s.store.LoadUsers(rq.Context())
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar los usuarios", err)
	}

	for _, u := range users {
		photo := u.PhotoURL
		if photo == "" {
			photo = PlaceholderPhoto
		}

		data.Users = append(data.Users, userView{User: u, Photo: photo})
	}

	s.render(w, "usuarios.html", data)
}

func (s *Server) addUser(w http.ResponseWriter, rq *http.Request) {
	name := clean(rq.FormValue("nombre"))
	age := clean(rq.FormValue("edad"))
	photo := clean(rq.FormValue("foto"))

	if name == "" || age == "" || photo == "" {
		redirect(w, rq, "/usuarios", FlashWarning, "Por favor, completa todos los campos.")
		return
	}

	n, err := strconv.Atoi(age)
	if err != nil || n < 1 || n > 120 {
		redirect(w, rq, "/usuarios", FlashWarning, "La edad debe ser un número entre 1 y 120.")
		return
	}

	user := model.User{
		Name:     name,
		Age:      n,
		PhotoURL: photo,
	}

	if err := s.store.SaveNewUser(rq.Context(), user); err != nil {
		s.failed(w, rq, "/usuarios", "No se pudo guardar el usuario", err)
		return
	}

	redirect(w, rq, "/usuarios", FlashInfo, fmt.Sprintf("¡Usuario '%v' guardado con éxito!", name))
}

func (s *Server) deleteUser(w http.ResponseWriter, rq *http.Request) {
	name := rq.PathValue("name")

	if err := s.store.DeleteUser(rq.Context(), name); err != nil {
		s.failed(w, rq, "/usuarios", "No se pudo eliminar el usuario", err)
		return
	}

	redirect(w, rq, "/usuarios", FlashInfo, fmt.Sprintf("Usuario '%v' eliminado.", name))
}

// refresh discards the cached spreadsheet reads, e.g. after the spreadsheet has been edited
// directly, and returns to the page it was requested from.
func (s *Server) refresh(w http.ResponseWriter, rq *http.Request) {
	s.store.Invalidate()

	log.Infof("http", "refreshed spreadsheet data")

	to := "/inicio"
	if from := rq.FormValue("from"); strings.HasPrefix(from, "/") && !strings.HasPrefix(from, "//") {
		to = from
	}

	redirect(w, rq, to, FlashInfo, "Datos actualizados.")
}

func (s *Server) analisis(w http.ResponseWriter, rq *http.Request) {
	ctx := rq.Context()
	data := struct {
		page
		Summary *report.Summary
		Colours map[string]string
	}{
		page: s.page(w, rq, "analisis"),
	}

	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		s.banner(&data.page, "Ocurrió un error al cargar las tareas", err)
		s.render(w, "analisis.html", data)
		return
	}

	summary := report.Summarise(tasks, s.now())
	data.Summary = &summary

	if categories, err := s.store.LoadCategories(ctx); err != nil {
		log.Warnf("http", "%v", err)
	} else {
		data.Colours = model.CategoryColours(categories)
	}

	s.render(w, "analisis.html", data)
}

func (s *Server) reportes(w http.ResponseWriter, rq *http.Request) {
	data := struct {
		page
		Version *store.Version
	}{
		page: s.page(w, rq, "reportes"),
	}

	if v, err := s.store.Version(rq.Context()); err != nil {
		log.Warnf("http", "error retrieving spreadsheet version (%v)", err)
	} else {
		data.Version = v
	}

	s.render(w, "reportes.html", data)
}

func (s *Server) tsv(w http.ResponseWriter, rq *http.Request) {
	var b bytes.Buffer

	if err := report.TSV(rq.Context(), s.store, store.Tasks, &b); err != nil {
		s.failed(w, rq, "/reportes", "No se pudo generar el reporte", err)
		return
	}

	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tareas.tsv"`)
	w.Write(b.Bytes())
}

func (s *Server) xlsx(w http.ResponseWriter, rq *http.Request) {
	var b bytes.Buffer

	if err := report.Export(rq.Context(), s.store, &b, s.now()); err != nil {
		s.failed(w, rq, "/reportes", "No se pudo generar la planilla", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="planilla.xlsx"`)
	w.Write(b.Bytes())
}

// banner sets the page error banner for a failed read.
func (s *Server) banner(p *page, message string, err error) {
	log.Warnf("http", "%v (%v)", message, err)

	if p.Error == "" {
		p.Error = fmt.Sprintf("%v: %v", message, err)
	}
}

// failed redirects after a failed write. Validation failures are shown as warnings, anything else
// as an error.
func (s *Server) failed(w http.ResponseWriter, rq *http.Request, to string, message string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalid):
		redirect(w, rq, to, FlashWarning, fmt.Sprintf("%v: %v", message, err))

	case errors.Is(err, store.ErrNotFound):
		log.Warnf("http", "%v (%v)", message, err)
		redirect(w, rq, to, FlashError, fmt.Sprintf("%v: no existe", message))

	default:
		log.Warnf("http", "%v (%v)", message, err)
		redirect(w, rq, to, FlashError, fmt.Sprintf("%v: %v", message, err))
	}
}

func taskForm(rq *http.Request) model.Task {
	return model.Task{
		Title:       clean(rq.FormValue("titulo")),
		Description: clean(rq.FormValue("descripcion")),
		Assignee:    clean(rq.FormValue("asignado")),
		Category:    clean(rq.FormValue("categoria")),
		Due:         model.ParseDate(rq.FormValue("fecha")),
		Status:      model.ParseStatus(rq.FormValue("estado")),
		Progress:    model.ParseProgress(rq.FormValue("avance")),
	}
}

// assignees lists the user names, or just the default assignee if there are no users.
func assignees(users []model.User) []string {
	names := []string{}
	for _, u := range users {
		names = append(names, u.Name)
	}

	if len(names) == 0 {
		return []string{DefaultAssignee}
	}

	return names
}

func edit(id string) string {
	return fmt.Sprintf("/tasks/%v/edit", url.PathEscape(id))
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

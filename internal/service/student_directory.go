package service

import (
	"context"
	"errors"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// StudentDirectory 聚合学生、课程、项目、任务与进度的只读查询
type StudentDirectory struct {
	students    StudentRepository
	courses     CourseRepository
	projects    ProjectRepository
	tasks       TaskRepository
	progress    ProgressRepository
	predictions PredictionRepository
	log         *zap.Logger
}

func NewStudentDirectory(students StudentRepository, courses CourseRepository, projects ProjectRepository,
	tasks TaskRepository, progress ProgressRepository, predictions PredictionRepository, log *zap.Logger) *StudentDirectory {
	return &StudentDirectory{
		students:    students,
		courses:     courses,
		projects:    projects,
		tasks:       tasks,
		progress:    progress,
		predictions: predictions,
		log:         log,
	}
}

func (d *StudentDirectory) Student(ctx context.Context, studentID string) (*model.Student, error) {
	return d.students.FindByID(ctx, studentID)
}

// ContextOf academicYear 优先于 year，缺省为 1；academicYear 为空或 0 时取 year
func ContextOf(st *model.Student) *model.StudentContext {
	yearRaw := st.AcademicYear
	if isBlank(yearRaw) {
		yearRaw = st.Year
	}
	return &model.StudentContext{
		Year:           util.IntOr(yearRaw, 1),
		Semester:       util.IntOr(st.Semester, 1),
		Specialization: st.Specialization,
	}
}

func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f == 0
	}
	return false
}

// CoursesFor 先查未归档课程，没有结果时去掉归档条件重试
func (d *StudentDirectory) CoursesFor(ctx context.Context, sc *model.StudentContext) ([]model.Course, error) {
	courses, err := d.courses.FindForStudent(ctx, sc.Year, sc.Semester, sc.Specialization, true)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		return courses, nil
	}

	courses, err = d.courses.FindForStudent(ctx, sc.Year, sc.Semester, sc.Specialization, false)
	if err != nil {
		return nil, err
	}
	d.log.Debug("Retried course lookup without archive filter", zap.Int("courses", len(courses)))
	return courses, nil
}

// StudentCourses 学生不存在时返回空列表
func (d *StudentDirectory) StudentCourses(ctx context.Context, studentID string) ([]model.Course, error) {
	st, err := d.students.FindByID(ctx, studentID)
	if errors.Is(err, util.ErrStudentNotFound) {
		d.log.Info("Student not found", zap.String("student_id", studentID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.CoursesFor(ctx, ContextOf(st))
}

func courseIDs(courses []model.Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID.Hex()
	}
	return ids
}

func courseIndex(courses []model.Course) map[string]*model.Course {
	idx := make(map[string]*model.Course, len(courses))
	for i := range courses {
		idx[courses[i].ID.Hex()] = &courses[i]
	}
	return idx
}

// ProjectsFor 项目附带该学生的进度和所属课程
func (d *StudentDirectory) ProjectsFor(ctx context.Context, studentID string, courses []model.Course) ([]model.Project, error) {
	if len(courses) == 0 {
		return nil, nil
	}

	projects, err := d.projects.FindByCourseIDs(ctx, courseIDs(courses))
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID.Hex()
	}
	progress, err := d.progress.ProjectProgress(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	byProject := make(map[string]*model.Progress, len(progress))
	for i := range progress {
		if _, seen := byProject[progress[i].ProjectID]; !seen {
			byProject[progress[i].ProjectID] = &progress[i]
		}
	}

	idx := courseIndex(courses)
	for i := range projects {
		projects[i].Progress = byProject[projects[i].ID.Hex()]
		projects[i].Course = idx[projects[i].CourseID]
	}
	return projects, nil
}

func (d *StudentDirectory) TasksFor(ctx context.Context, studentID string, courses []model.Course) ([]model.Task, error) {
	if len(courses) == 0 {
		return nil, nil
	}

	tasks, err := d.tasks.FindByCourseIDs(ctx, courseIDs(courses))
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID.Hex()
	}
	progress, err := d.progress.TaskProgress(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	byTask := make(map[string]*model.Progress, len(progress))
	for i := range progress {
		if _, seen := byTask[progress[i].TaskID]; !seen {
			byTask[progress[i].TaskID] = &progress[i]
		}
	}

	idx := courseIndex(courses)
	for i := range tasks {
		tasks[i].Progress = byTask[tasks[i].ID.Hex()]
		tasks[i].Course = idx[tasks[i].CourseID]
	}
	return tasks, nil
}

// Workload 学生的全部项目和任务
func (d *StudentDirectory) Workload(ctx context.Context, studentID string) ([]model.Project, []model.Task, error) {
	courses, err := d.StudentCourses(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	projects, err := d.ProjectsFor(ctx, studentID, courses)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := d.TasksFor(ctx, studentID, courses)
	if err != nil {
		return nil, nil, err
	}
	return projects, tasks, nil
}

func (d *StudentDirectory) Activity(ctx context.Context, studentID string) ([]model.Progress, error) {
	return d.progress.ListByStudent(ctx, studentID)
}

func (d *StudentDirectory) StoredPredictions(ctx context.Context, studentID string, limit int) ([]model.StoredPrediction, error) {
	return d.predictions.Recent(ctx, studentID, limit)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	prioritizedLimit = 10
	deadlinesLimit   = 5
	heatmapDays      = 365
	heatmapMaxLevel  = 4
)

const projectTaskHelp = "I can help you with:\n- Listing your projects\n- Showing prioritized tasks\n- Progress summaries\n- Upcoming deadlines"

// ProjectTaskChatbot 回答项目、任务、截止日期相关的问题
type ProjectTaskChatbot struct {
	dir        *StudentDirectory
	classifier *IntentClassifier
	log        *zap.Logger
	now        func() time.Time
}

func NewProjectTaskChatbot(dir *StudentDirectory, classifier *IntentClassifier, log *zap.Logger) *ProjectTaskChatbot {
	return &ProjectTaskChatbot{dir: dir, classifier: classifier, log: log, now: time.Now}
}

func (b *ProjectTaskChatbot) Handle(ctx context.Context, query, studentID string) (*model.ChatResponse, error) {
	intent, score := b.classifier.Classify(ctx, query)
	b.log.Debug("Classified query",
		zap.String("module", util.ModuleProjectTask),
		zap.String("intent", intent),
		zap.Float64("score", score))

	var (
		text string
		err  error
	)
	switch intent {
	case IntentListProjects:
		text, err = b.listProjects(ctx, studentID)
	case IntentPrioritizedTasks:
		text, err = b.prioritized(ctx, studentID)
	case IntentTaskSummary, IntentCompletionRate:
		text, err = b.summary(ctx, studentID)
	case IntentUpcomingDeadlines:
		text, err = b.upcomingDeadlines(ctx, studentID)
	case IntentProjectDetails:
		text, err = b.projectDetails(ctx, query, studentID)
	default:
		text = projectTaskHelp
	}
	if err != nil {
		return nil, err
	}

	return &model.ChatResponse{Response: text, Intent: intent, Module: util.ModuleProjectTask}, nil
}

func (b *ProjectTaskChatbot) listProjects(ctx context.Context, studentID string) (string, error) {
	courses, err := b.dir.StudentCourses(ctx, studentID)
	if err != nil {
		return "", err
	}
	projects, err := b.dir.ProjectsFor(ctx, studentID, courses)
	if err != nil {
		return "", err
	}
	return formatProjects(projects), nil
}

func formatProjects(projects []model.Project) string {
	if len(projects) == 0 {
		return "You don't have any projects assigned yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d project(s):\n\n", len(projects))
	for i, p := range projects {
		fmt.Fprintf(&sb, "%d. **%s** (%s)\n", i+1, p.ProjectName, p.ProjectType)
		fmt.Fprintf(&sb, "   - Status: %s\n", strings.ToUpper(model.StatusOf(p.Progress)))
		fmt.Fprintf(&sb, "   - Deadline: %s at %s\n", p.DeadlineDate, deadlineTime(p.DeadlineTime))
		fmt.Fprintf(&sb, "   - Course: %s\n\n", model.CourseNameOf(p.Course, util.DefaultCourseName))
	}
	return sb.String()
}

func deadlineTime(t string) string {
	if t == "" {
		return "23:59"
	}
	return t
}

type workItem struct {
	kind     string
	name     string
	deadline string
	due      time.Time
	status   string
	course   string
}

// pendingItems 未完成的项目和任务；没有截止日期的任务不计入
func pendingItems(projects []model.Project, tasks []model.Task) []workItem {
	var items []workItem
	for _, p := range projects {
		status := model.StatusOf(p.Progress)
		if status == model.StatusDone {
			continue
		}
		items = append(items, workItem{
			kind: "project", name: p.ProjectName, deadline: p.DeadlineDate,
			status: status, course: model.CourseNameOf(p.Course, "Unknown"),
		})
	}
	for _, t := range tasks {
		status := model.StatusOf(t.Progress)
		if status == model.StatusDone || t.DeadlineDate == "" {
			continue
		}
		items = append(items, workItem{
			kind: "task", name: t.TaskName, deadline: t.DeadlineDate,
			status: status, course: model.CourseNameOf(t.Course, "Unknown"),
		})
	}
	return items
}

func (b *ProjectTaskChatbot) upcomingDeadlines(ctx context.Context, studentID string) (string, error) {
	projects, tasks, err := b.dir.Workload(ctx, studentID)
	if err != nil {
		return "", err
	}

	items := pendingItems(projects, tasks)
	sort.SliceStable(items, func(i, j int) bool { return items[i].deadline < items[j].deadline })

	var sb strings.Builder
	sb.WriteString("**Upcoming Deadlines:**\n\n")
	if len(items) == 0 {
		sb.WriteString("You have no pending deadlines.\n")
	}
	for i, it := range items {
		if i == deadlinesLimit {
			break
		}
		fmt.Fprintf(&sb, "- **%s** (%s): %s\n", it.name, it.kind, it.deadline)
	}
	return sb.String(), nil
}

func (b *ProjectTaskChatbot) prioritized(ctx context.Context, studentID string) (string, error) {
	projects, tasks, err := b.dir.Workload(ctx, studentID)
	if err != nil {
		return "", err
	}

	var items []workItem
	for _, it := range pendingItems(projects, tasks) {
		due, err := time.ParseInLocation(util.DateFormat, it.deadline, time.Local)
		if err != nil {
			b.log.Warn("Skipping item with invalid deadline",
				zap.String("name", it.name),
				zap.String("deadline", it.deadline))
			continue
		}
		it.due = due
		items = append(items, it)
	}

	if len(items) == 0 {
		return "Great! You don't have any pending tasks or projects right now.", nil
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].due.Before(items[j].due) })

	now := b.now()
	var sb strings.Builder
	sb.WriteString("**Your Prioritized To-Do List:**\n\n")
	for i, it := range items {
		if i == prioritizedLimit {
			break
		}
		days := daysUntil(it.due, now)
		fmt.Fprintf(&sb, "%d. %s **%s** (%s)\n", i+1, urgencyMarker(days), it.name, it.kind)
		fmt.Fprintf(&sb, "   - %s\n", it.course)
		fmt.Fprintf(&sb, "   - Due: %s (%d days)\n", it.due.Format(util.DateFormat), days)
		fmt.Fprintf(&sb, "   - Status: %s\n\n", strings.ToUpper(it.status))
	}
	return sb.String(), nil
}

// daysUntil 向下取整的天数，已过期为负
func daysUntil(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

func urgencyMarker(days int) string {
	switch {
	case days < 2:
		return "🔴 URGENT"
	case days < 7:
		return "🟡 SOON"
	default:
		return "🟢"
	}
}

type statusCounts struct {
	total, done, inProgress, todo int
}

func (c statusCounts) rate() float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.done) / float64(c.total) * 100
}

func countStatus(progress []*model.Progress) statusCounts {
	c := statusCounts{total: len(progress)}
	for _, p := range progress {
		switch model.StatusOf(p) {
		case model.StatusDone:
			c.done++
		case model.StatusInProgress:
			c.inProgress++
		case model.StatusTodo:
			c.todo++
		}
	}
	return c
}

func (b *ProjectTaskChatbot) summary(ctx context.Context, studentID string) (string, error) {
	projects, tasks, err := b.dir.Workload(ctx, studentID)
	if err != nil {
		return "", err
	}

	pp := make([]*model.Progress, len(projects))
	for i := range projects {
		pp[i] = projects[i].Progress
	}
	tp := make([]*model.Progress, len(tasks))
	for i := range tasks {
		tp[i] = tasks[i].Progress
	}
	pc, tc := countStatus(pp), countStatus(tp)

	var sb strings.Builder
	sb.WriteString("**Your Progress Summary:**\n\n")
	writeCounts(&sb, "Projects", pc)
	sb.WriteString("\n")
	writeCounts(&sb, "Tasks", tc)
	return sb.String(), nil
}

func writeCounts(sb *strings.Builder, label string, c statusCounts) {
	fmt.Fprintf(sb, "**%s:**\n", label)
	fmt.Fprintf(sb, "- Total: %d\n", c.total)
	fmt.Fprintf(sb, "- Completed: %d\n", c.done)
	fmt.Fprintf(sb, "- In Progress: %d\n", c.inProgress)
	fmt.Fprintf(sb, "- To Do: %d\n", c.todo)
	fmt.Fprintf(sb, "- Completion Rate: %.1f%%\n", c.rate())
}

// projectDetails 查询中包含项目名时展示该项目，否则列出全部项目
func (b *ProjectTaskChatbot) projectDetails(ctx context.Context, query, studentID string) (string, error) {
	courses, err := b.dir.StudentCourses(ctx, studentID)
	if err != nil {
		return "", err
	}
	projects, err := b.dir.ProjectsFor(ctx, studentID, courses)
	if err != nil {
		return "", err
	}

	q := strings.ToLower(query)
	var match *model.Project
	for i := range projects {
		name := strings.ToLower(strings.TrimSpace(projects[i].ProjectName))
		if name == "" || !strings.Contains(q, name) {
			continue
		}
		// 名称更长的匹配更具体
		if match == nil || len(name) > len(match.ProjectName) {
			match = &projects[i]
		}
	}
	if match == nil {
		return formatProjects(projects), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s)\n\n", match.ProjectName, match.ProjectType)
	if match.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", match.Description)
	}
	fmt.Fprintf(&sb, "- Course: %s\n", model.CourseNameOf(match.Course, util.DefaultCourseName))
	fmt.Fprintf(&sb, "- Deadline: %s at %s\n", match.DeadlineDate, deadlineTime(match.DeadlineTime))
	fmt.Fprintf(&sb, "- Status: %s\n", strings.ToUpper(model.StatusOf(match.Progress)))
	if due, err := time.ParseInLocation(util.DateFormat, match.DeadlineDate, time.Local); err == nil {
		fmt.Fprintf(&sb, "- Days left: %d\n", daysUntil(due, b.now()))
	}
	return sb.String(), nil
}

// Heatmap 最近 365 天（含今天）每天的进度更新次数
func (b *ProjectTaskChatbot) Heatmap(ctx context.Context, studentID string) (*model.Heatmap, error) {
	activity, err := b.dir.Activity(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return buildHeatmap(activity, b.now()), nil
}

func buildHeatmap(activity []model.Progress, now time.Time) *model.Heatmap {
	end := now
	start := end.AddDate(0, 0, -heatmapDays)

	counts := make(map[string]int, heatmapDays+1)
	for _, p := range activity {
		if p.UpdatedAt == nil {
			continue
		}
		counts[p.UpdatedAt.In(now.Location()).Format(util.DateFormat)]++
	}

	days := make([]model.HeatmapDay, 0, heatmapDays+1)
	total := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(util.DateFormat)
		n := counts[key]
		level := n
		if level > heatmapMaxLevel {
			level = heatmapMaxLevel
		}
		days = append(days, model.HeatmapDay{Date: key, Count: n, Level: level})
		total += n
	}

	return &model.Heatmap{Heatmap: days, TotalDays: len(days), TotalActivities: total}
}

// TestConnection 检查学生、课程、项目、任务、进度的可见数量
func (b *ProjectTaskChatbot) TestConnection(ctx context.Context, studentID string) (*model.ConnectionStatus, error) {
	status := &model.ConnectionStatus{Status: "connected", Embedder: b.classifier.embedder.Name()}

	st, err := b.dir.Student(ctx, studentID)
	switch {
	case err == nil:
		status.StudentFound = true
		status.StudentName = st.Name
	case !errors.Is(err, util.ErrStudentNotFound):
		return nil, err
	}

	courses, err := b.dir.StudentCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	projects, tasks, err := b.dir.Workload(ctx, studentID)
	if err != nil {
		return nil, err
	}
	activity, err := b.dir.Activity(ctx, studentID)
	if err != nil {
		return nil, err
	}
	predictions, err := b.dir.StoredPredictions(ctx, studentID, 5)
	if err != nil {
		return nil, err
	}

	status.CoursesCount = len(courses)
	status.ProjectsCount = len(projects)
	status.TasksCount = len(tasks)
	status.ProgressCount = countProjectProgress(activity)
	status.PredictionsCount = len(predictions)
	return status, nil
}

// countProjectProgress 只计项目进度，任务进度不算在内
func countProjectProgress(activity []model.Progress) int {
	n := 0
	for _, p := range activity {
		if p.ProjectID != "" {
			n++
		}
	}
	return n
}

package service

import (
	"context"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ = Describe("ProjectTaskChatbot", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	ask := func(intent, query string) *model.ChatResponse {
		resp, err := f.projectBot(intent).Handle(ctx, query, f.studentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Module).To(Equal(util.ModuleProjectTask))
		Expect(resp.Intent).To(Equal(intent))
		return resp
	}

	It("lists projects with status, deadline and course", func() {
		text := ask(IntentListProjects, "show my projects").Response
		Expect(text).To(HavePrefix("You have 3 project(s):\n\n"))
		Expect(text).To(ContainSubstring("1. **Alpha Project** (Group)\n   - Status: TODO\n   - Deadline: 2026-03-11 at 17:00\n   - Course: Software Architecture\n"))
		Expect(text).To(ContainSubstring("2. **Beta** (Individual)\n   - Status: INPROGRESS\n   - Deadline: 2026-03-15 at 23:59"))
		Expect(text).To(ContainSubstring("3. **Gamma** (Individual)\n   - Status: DONE"))
	})

	It("orders pending work by deadline with urgency markers", func() {
		text := ask(IntentPrioritizedTasks, "what should i do").Response
		Expect(text).To(HavePrefix("**Your Prioritized To-Do List:**\n\n"))
		Expect(text).To(ContainSubstring("1. 🔴 URGENT **Alpha Project** (project)\n   - Software Architecture\n   - Due: 2026-03-11 (0 days)\n   - Status: TODO"))
		Expect(text).To(ContainSubstring("2. 🟡 SOON **Beta** (project)"))
		Expect(text).To(ContainSubstring("   - Due: 2026-03-15 (4 days)\n   - Status: INPROGRESS"))
		Expect(text).To(ContainSubstring("3. 🟢 **Read chapter 4** (task)"))
		Expect(text).NotTo(ContainSubstring("Gamma"))
		Expect(text).NotTo(ContainSubstring("Optional reading"))
	})

	It("caps the prioritized list", func() {
		cid := f.lms.courses[0].ID.Hex()
		for i := 0; i < 12; i++ {
			f.lms.tasks = append(f.lms.tasks, model.Task{
				ID: primitive.NewObjectID(), TaskName: "Extra", CourseID: cid,
				DeadlineDate: f.now.AddDate(0, 0, 20+i).Format(util.DateFormat),
			})
		}
		text := ask(IntentPrioritizedTasks, "todo").Response
		Expect(text).To(ContainSubstring("10. "))
		Expect(text).NotTo(ContainSubstring("11. "))
	})

	It("shows up to five upcoming deadlines", func() {
		text := ask(IntentUpcomingDeadlines, "deadline").Response
		Expect(text).To(Equal("**Upcoming Deadlines:**\n\n" +
			"- **Alpha Project** (project): 2026-03-11\n" +
			"- **Beta** (project): 2026-03-15\n" +
			"- **Read chapter 4** (task): 2026-03-20\n"))
	})

	It("summarizes projects and tasks", func() {
		for _, intent := range []string{IntentTaskSummary, IntentCompletionRate} {
			text := ask(intent, "summary").Response
			Expect(text).To(ContainSubstring("**Projects:**\n- Total: 3\n- Completed: 1\n- In Progress: 1\n- To Do: 1\n- Completion Rate: 33.3%"))
			Expect(text).To(ContainSubstring("**Tasks:**\n- Total: 2\n- Completed: 0\n- In Progress: 0\n- To Do: 2\n- Completion Rate: 0.0%"))
		}
	})

	It("shows details of the project named in the query", func() {
		text := ask(IntentProjectDetails, "Tell me about alpha project please").Response
		Expect(text).To(HavePrefix("**Alpha Project** (Group)\n\nDesign a microservice\n\n"))
		Expect(text).To(ContainSubstring("- Deadline: 2026-03-11 at 17:00"))
		Expect(text).To(ContainSubstring("- Days left: 0"))
	})

	It("lists all projects when no name matches", func() {
		text := ask(IntentProjectDetails, "tell me about something").Response
		Expect(text).To(HavePrefix("You have 3 project(s):"))
	})

	It("answers unknown intents with help", func() {
		Expect(ask(IntentGeneralQuestion, "hello").Response).To(Equal(projectTaskHelp))
	})

	Context("when the student does not exist", func() {
		BeforeEach(func() {
			f.studentID = primitive.NewObjectID().Hex()
		})

		It("reports empty work", func() {
			Expect(ask(IntentListProjects, "projects").Response).To(Equal("You don't have any projects assigned yet."))
			Expect(ask(IntentPrioritizedTasks, "todo").Response).To(Equal("Great! You don't have any pending tasks or projects right now."))
			Expect(ask(IntentUpcomingDeadlines, "deadline").Response).To(ContainSubstring("You have no pending deadlines."))
		})
	})

	It("fails on a malformed student id", func() {
		_, err := f.projectBot(IntentListProjects).Handle(ctx, "projects", "not-an-id")
		Expect(err).To(MatchError(util.ErrInvalidObjectID))
	})

	It("falls back to courses that are archived", func() {
		f.lms.courses[0].IsArchived = true
		text := ask(IntentListProjects, "projects").Response
		Expect(text).To(HavePrefix("You have 3 project(s):"))
	})

	It("reports connection status", func() {
		status, err := f.projectBot(IntentListProjects).TestConnection(ctx, f.studentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*status).To(Equal(model.ConnectionStatus{
			Status:        "connected",
			StudentFound:  true,
			StudentName:   "Nimal Perera",
			CoursesCount:  1,
			ProjectsCount: 3,
			TasksCount:    2,
			ProgressCount: 2,
			Embedder:      "fake",
		}))
	})

	It("counts only project progress in the connection status", func() {
		f.lms.progress = append(f.lms.progress, model.Progress{
			StudentID: f.studentID,
			TaskID:    f.tasks[0].ID.Hex(),
			Status:    model.StatusDone,
			UpdatedAt: timePtr(f.now),
		})

		status, err := f.projectBot(IntentListProjects).TestConnection(ctx, f.studentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.ProgressCount).To(Equal(2))
	})
})

var _ = Describe("ContextOf", func() {
	DescribeTable("picks the academic year",
		func(academicYear, year interface{}, want int) {
			sc := ContextOf(&model.Student{AcademicYear: academicYear, Year: year})
			Expect(sc.Year).To(Equal(want))
		},
		Entry("academicYear set", "3", 2, 3),
		Entry("numeric academicYear", int32(4), int32(2), 4),
		Entry("academicYear zero falls back to year", int32(0), int32(2), 2),
		Entry("academicYear blank falls back to year", " ", "2", 2),
		Entry("both missing", nil, nil, 1),
	)
})

var _ = Describe("buildHeatmap", func() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	It("covers the last year including today", func() {
		h := buildHeatmap(nil, now)
		Expect(h.Heatmap).To(HaveLen(366))
		Expect(h.TotalDays).To(Equal(366))
		Expect(h.TotalActivities).To(BeZero())
		Expect(h.Heatmap[0].Date).To(Equal("2025-03-10"))
		Expect(h.Heatmap[365].Date).To(Equal("2026-03-10"))
	})

	It("counts updates per day and caps the level", func() {
		var activity []model.Progress
		for i := 0; i < 6; i++ {
			activity = append(activity, model.Progress{UpdatedAt: timePtr(now.Add(-time.Duration(i) * time.Minute))})
		}
		activity = append(activity,
			model.Progress{UpdatedAt: timePtr(now.AddDate(0, 0, -1))},
			model.Progress{},
			model.Progress{UpdatedAt: timePtr(now.AddDate(-2, 0, 0))},
		)

		h := buildHeatmap(activity, now)
		Expect(h.TotalActivities).To(Equal(7))
		Expect(h.Heatmap[365]).To(Equal(model.HeatmapDay{Date: "2026-03-10", Count: 6, Level: 4}))
		Expect(h.Heatmap[364]).To(Equal(model.HeatmapDay{Date: "2026-03-09", Count: 1, Level: 1}))
	})

	It("is served for a student", func() {
		f := newFixture()
		h, err := f.projectBot(IntentListProjects).Heatmap(context.Background(), f.studentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.TotalActivities).To(Equal(2))
	})
})

var _ = Describe("urgencyMarker", func() {
	DescribeTable("by days left",
		func(days int, want string) {
			Expect(urgencyMarker(days)).To(Equal(want))
		},
		Entry("overdue", -3, "🔴 URGENT"),
		Entry("tomorrow", 1, "🔴 URGENT"),
		Entry("two days", 2, "🟡 SOON"),
		Entry("six days", 6, "🟡 SOON"),
		Entry("a week", 7, "🟢"),
	)
})

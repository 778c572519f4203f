package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
)

type Project struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	ProjectName  string             `bson:"projectName" json:"projectName"`
	ProjectType  string             `bson:"projectType" json:"projectType"`
	Description  string             `bson:"description" json:"description"`
	CourseID     string             `bson:"courseId" json:"courseId"`
	DeadlineDate string             `bson:"deadlineDate" json:"deadlineDate"`
	DeadlineTime string             `bson:"deadlineTime" json:"deadlineTime"`

	Progress *Progress `bson:"-" json:"progress,omitempty"`
	Course   *Course   `bson:"-" json:"course,omitempty"`
}

type Task struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	TaskName     string             `bson:"taskName" json:"taskName"`
	Description  string             `bson:"description" json:"description"`
	CourseID     string             `bson:"courseId" json:"courseId"`
	DeadlineDate string             `bson:"deadlineDate" json:"deadlineDate"`

	Progress *Progress `bson:"-" json:"progress,omitempty"`
	Course   *Course   `bson:"-" json:"course,omitempty"`
}

// Progress 学生在项目或任务上的进度，两个集合共用
type Progress struct {
	StudentID string     `bson:"studentId" json:"studentId"`
	ProjectID string     `bson:"projectId,omitempty" json:"projectId,omitempty"`
	TaskID    string     `bson:"taskId,omitempty" json:"taskId,omitempty"`
	Status    string     `bson:"status" json:"status"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// StatusOf 没有进度记录视为 todo
func StatusOf(p *Progress) string {
	if p == nil || p.Status == "" {
		return StatusTodo
	}
	return p.Status
}

func CourseNameOf(c *Course, def string) string {
	if c == nil || c.CourseName == "" {
		return def
	}
	return c.CourseName
}

package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student LMS 的学生档案；年级/学期在库里可能是字符串也可能是数字
type Student struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	StudentIDNumber string             `bson:"studentIdNumber" json:"studentIdNumber"`
	AcademicYear    interface{}        `bson:"academicYear" json:"academicYear,omitempty"`
	Year            interface{}        `bson:"year" json:"year,omitempty"`
	Semester        interface{}        `bson:"semester" json:"semester,omitempty"`
	Specialization  string             `bson:"specialization" json:"specialization"`
	Gender          string             `bson:"gender" json:"gender,omitempty"`
	DateOfBirth     interface{}        `bson:"dateOfBirth" json:"dateOfBirth,omitempty"`
	Disability      interface{}        `bson:"disability" json:"disability,omitempty"`
}

type Course struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	CourseName      string             `bson:"courseName" json:"courseName"`
	Year            interface{}        `bson:"year" json:"year"`
	Semester        interface{}        `bson:"semester" json:"semester"`
	Specializations []string           `bson:"specializations" json:"specializations"`
	IsArchived      bool               `bson:"isArchived" json:"isArchived"`
}

// Command seed populates a development database with a demo academy:
// staff accounts, a student roster, a math problem catalog, and a graded
// assignment history rich enough to exercise the weakness analysis.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/config"
	"github.com/hakwonplus/hakwon-api/database"
	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/auth"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Printf("seed: no .env loaded: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("seed: failed to connect: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("seed: failed to migrate: %v", err)
	}

	if err := run(store.GetDB()); err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Println("seed: done")
}

func run(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Academy{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("database already has data, refusing to seed")
	}

	academy := model.Academy{
		Name:      "한빛수학학원",
		OwnerName: "김원장",
		Address:   "서울시 강남구 대치동 123",
		Phone:     "02-555-0101",
	}
	if err := db.Create(&academy).Error; err != nil {
		return err
	}

	adminHash, err := auth.HashPassword("admin1234!")
	if err != nil {
		return err
	}
	admin := model.User{
		AcademyID:    academy.ID,
		Email:        "admin@hanbit.example.com",
		PasswordHash: adminHash,
		Name:         "김원장",
		Role:         "admin",
	}
	teacherHash, err := auth.HashPassword("teacher1234!")
	if err != nil {
		return err
	}
	teacher := model.User{
		AcademyID:    academy.ID,
		Email:        "teacher@hanbit.example.com",
		PasswordHash: teacherHash,
		Name:         "이선생",
		Role:         "teacher",
		Subject:      "수학",
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	if err := db.Create(&teacher).Error; err != nil {
		return err
	}

	subjects, _ := json.Marshal([]string{"수학"})
	students := []model.Student{
		{AcademyID: academy.ID, Name: "박민준", Grade: "중3", School: "대치중학교", Subjects: datatypes.JSON(subjects), Active: true},
		{AcademyID: academy.ID, Name: "최서연", Grade: "중3", School: "대치중학교", Subjects: datatypes.JSON(subjects), Active: true},
		{AcademyID: academy.ID, Name: "정하윤", Grade: "중3", School: "은마중학교", Subjects: datatypes.JSON(subjects), Active: true},
	}
	if err := db.Create(&students).Error; err != nil {
		return err
	}

	problems, err := seedProblems(db, academy.ID, teacher.ID)
	if err != nil {
		return err
	}

	class := model.Class{
		AcademyID: academy.ID,
		Name:      "중3 수학 심화반",
		Subject:   "수학",
		TeacherID: teacher.ID,
		Room:      "201호",
	}
	if err := db.Create(&class).Error; err != nil {
		return err
	}
	for _, s := range students {
		if err := db.Create(&model.ClassEnrollment{ClassID: class.ID, StudentID: s.ID}).Error; err != nil {
			return err
		}
	}

	return seedAssignment(db, class, students, problems)
}

type problemSeed struct {
	unit       string
	content    string
	answer     string
	difficulty model.Difficulty
	tags       []string
}

func seedProblems(db *gorm.DB, academyID, createdBy uint) ([]model.Problem, error) {
	seeds := []problemSeed{
		{"이차방정식", "x^2 - 5x + 6 = 0 의 해를 모두 구하시오.", "x=2, x=3", model.DifficultyEasy, []string{"인수분해"}},
		{"이차방정식", "x^2 + 2x - 8 = 0 의 해를 근의 공식으로 구하시오.", "x=2, x=-4", model.DifficultyMedium, []string{"근의 공식"}},
		{"이차방정식", "이차방정식 x^2 - 4x + k = 0 이 중근을 가질 때 k의 값을 구하시오.", "4", model.DifficultyMedium, []string{"판별식"}},
		{"이차방정식", "둘레가 28cm이고 넓이가 48cm^2인 직사각형의 가로 길이를 구하시오.", "6", model.DifficultyHard, []string{"이차방정식의 활용"}},
		{"이차함수", "이차함수 y = x^2 - 2x + 3 의 꼭짓점 좌표를 구하시오.", "(1, 2)", model.DifficultyEasy, []string{"꼭짓점"}},
		{"이차함수", "y = -2(x+1)^2 + 5 의 최댓값을 구하시오.", "5", model.DifficultyMedium, []string{"최댓값과 최솟값"}},
		{"삼각비", "직각삼각형에서 sin 30° 의 값을 구하시오.", "1/2", model.DifficultyEasy, []string{"특수각의 삼각비"}},
		{"삼각비", "tan 45° + cos 60° 의 값을 구하시오.", "3/2", model.DifficultyMedium, []string{"특수각의 삼각비"}},
		{"원의 성질", "반지름이 5인 원에서 중심으로부터 거리가 3인 현의 길이를 구하시오.", "8", model.DifficultyMedium, []string{"현의 길이"}},
		{"원의 성질", "원에 내접하는 사각형에서 한 내각이 70°일 때 마주보는 각의 크기를 구하시오.", "110", model.DifficultyEasy, []string{"내접사각형"}},
	}

	problems := make([]model.Problem, 0, len(seeds))
	for _, s := range seeds {
		tags, err := json.Marshal(s.tags)
		if err != nil {
			return nil, err
		}
		problems = append(problems, model.Problem{
			AcademyID:  academyID,
			Subject:    "수학",
			Grade:      "중3",
			Unit:       s.unit,
			Content:    s.content,
			Answer:     s.answer,
			Difficulty: s.difficulty,
			Tags:       datatypes.JSON(tags),
			Source:     "seed",
			CreatedBy:  createdBy,
		})
	}
	if err := db.Create(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

// seedAssignment hands the full catalog out as one assignment and grades a
// submission per student, giving each student a distinct weakness profile.
func seedAssignment(db *gorm.DB, class model.Class, students []model.Student, problems []model.Problem) error {
	problemIDs := make([]uint, len(problems))
	for i, p := range problems {
		problemIDs[i] = p.ID
	}
	encodedIDs, err := json.Marshal(problemIDs)
	if err != nil {
		return err
	}

	assignment := model.Assignment{
		ClassID:    class.ID,
		Title:      "10월 단원 종합 평가",
		Subject:    "수학",
		ProblemIDs: datatypes.JSON(encodedIDs),
	}
	if err := db.Create(&assignment).Error; err != nil {
		return err
	}

	// Student 0 struggles with 이차방정식, student 1 with 삼각비, student 2
	// does well across the board.
	wrongUnits := []map[string]bool{
		{"이차방정식": true},
		{"삼각비": true, "원의 성질": true},
		{},
	}

	for i, student := range students {
		answers := make([]model.SubmittedAnswer, 0, len(problems))
		correctCount := 0
		for _, p := range problems {
			correct := !wrongUnits[i][p.Unit]
			answer := p.Answer
			if !correct {
				answer = "모름"
			} else {
				correctCount++
			}
			isCorrect := correct
			answers = append(answers, model.SubmittedAnswer{
				ProblemID: p.ID,
				Answer:    answer,
				IsCorrect: &isCorrect,
			})
		}

		submittedAt := time.Now().AddDate(0, 0, -7)
		gradedAt := submittedAt.Add(time.Hour)
		submission := model.StudentAssignment{
			AssignmentID: assignment.ID,
			StudentID:    student.ID,
			Status:       model.SubmissionGraded,
			SubmittedAt:  &submittedAt,
			GradedAt:     &gradedAt,
			Score:        correctCount * 100 / len(problems),
		}
		if err := submission.SetAnswers(answers); err != nil {
			return err
		}
		if err := db.Create(&submission).Error; err != nil {
			return err
		}
	}

	return nil
}

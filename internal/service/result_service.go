package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// ParticipantOutcome — итог одного участника
type ParticipantOutcome struct {
	Score          int
	CorrectAnswers int
	TotalTimeSec   int
}

// ParticipantResult — строка сводки результатов по участнику
type ParticipantResult struct {
	ParticipantID  uint       `json:"participant_id"`
	DisplayName    string     `json:"display_name"`
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correct_answers"`
	TotalQuestions int        `json:"total_questions"`
	TotalTimeSec   int        `json:"total_time_sec"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// OptionBreakdown — распределение ответов по одному варианту
type OptionBreakdown struct {
	OptionID   uint    `json:"option_id"`
	Text       string  `json:"text"`
	IsCorrect  bool    `json:"is_correct"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// QuestionSummary — сводка ответов по одному вопросу
type QuestionSummary struct {
	QuestionID       uint              `json:"question_id"`
	Text             string            `json:"text"`
	Responses        int               `json:"responses"`
	CorrectResponses int               `json:"correct_responses"`
	AverageTimeSec   float64           `json:"average_time_sec"`
	Options          []OptionBreakdown `json:"options"`
}

// OverallStats — общая статистика по викторине
type OverallStats struct {
	ParticipantCount int     `json:"participant_count"`
	AverageScore     float64 `json:"average_score"`
	AverageTimeSec   float64 `json:"average_time_sec"`
}

// QuizResults — полная сводка результатов викторины
type QuizResults struct {
	QuizID       uint                `json:"quiz_id"`
	Title        string              `json:"title"`
	HasResults   bool                `json:"has_results"`
	Overall      OverallStats        `json:"overall"`
	Participants []ParticipantResult `json:"participants"`
	Questions    []QuestionSummary   `json:"questions"`
}

// ScoreParticipant подсчитывает итог участника.
// Счёт — 100 × правильные / всего вопросов (округление до целого);
// вопросы без записанного ответа считаются неправильными.
// Суммарное время складывается только из записанных ответов.
func ScoreParticipant(quiz *entity.Quiz, participant *entity.Participant) ParticipantOutcome {
	var outcome ParticipantOutcome
	total := len(quiz.Questions)
	if total == 0 {
		return outcome
	}

	for i := range quiz.Questions {
		answer := participant.AnswerFor(quiz.Questions[i].ID)
		if answer == nil {
			continue
		}
		if answer.IsCorrect {
			outcome.CorrectAnswers++
		}
		outcome.TotalTimeSec += answer.ElapsedSec
	}

	outcome.Score = int(math.Round(float64(outcome.CorrectAnswers) / float64(total) * 100))
	return outcome
}

// BuildResults строит сводку результатов за один проход по участникам.
// Функция чистая: входные данные не изменяются, повторный вызов на тех же
// данных даёт тот же результат. Все средние и проценты защищены от деления
// на ноль: при нуле участников HasResults=false и статистика нулевая.
func BuildResults(quiz *entity.Quiz, participants []entity.Participant) QuizResults {
	results := QuizResults{
		QuizID:       quiz.ID,
		Title:        quiz.Title,
		Participants: make([]ParticipantResult, 0, len(participants)),
		Questions:    make([]QuestionSummary, 0, len(quiz.Questions)),
	}

	totalQuestions := len(quiz.Questions)
	var scoreSum, timeSum int

	for i := range participants {
		p := &participants[i]
		outcome := ScoreParticipant(quiz, p)
		results.Participants = append(results.Participants, ParticipantResult{
			ParticipantID:  p.ID,
			DisplayName:    p.DisplayName,
			Score:          outcome.Score,
			CorrectAnswers: outcome.CorrectAnswers,
			TotalQuestions: totalQuestions,
			TotalTimeSec:   outcome.TotalTimeSec,
			CompletedAt:    p.CompletedAt,
		})
		scoreSum += outcome.Score
		timeSum += outcome.TotalTimeSec
	}

	if count := len(participants); count > 0 {
		results.HasResults = true
		results.Overall = OverallStats{
			ParticipantCount: count,
			AverageScore:     float64(scoreSum) / float64(count),
			AverageTimeSec:   float64(timeSum) / float64(count),
		}
	}

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		summary := QuestionSummary{
			QuestionID: question.ID,
			Text:       question.Text,
			Options:    make([]OptionBreakdown, 0, len(question.Options)),
		}

		counts := make(map[uint]int, len(question.Options))
		var timeTotal int
		for j := range participants {
			answer := participants[j].AnswerFor(question.ID)
			if answer == nil {
				continue
			}
			summary.Responses++
			if answer.IsCorrect {
				summary.CorrectResponses++
			}
			timeTotal += answer.ElapsedSec
			counts[answer.OptionID]++
		}

		if summary.Responses > 0 {
			summary.AverageTimeSec = float64(timeTotal) / float64(summary.Responses)
		}

		for j := range question.Options {
			option := &question.Options[j]
			breakdown := OptionBreakdown{
				OptionID:  option.ID,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
				Count:     counts[option.ID],
			}
			if summary.Responses > 0 {
				breakdown.Percentage = float64(breakdown.Count) / float64(summary.Responses) * 100
			}
			summary.Options = append(summary.Options, breakdown)
		}

		results.Questions = append(results.Questions, summary)
	}

	return results
}

// ResultService предоставляет сводки результатов и их экспорт
type ResultService struct {
	quizRepo        repository.QuizRepository
	participantRepo repository.ParticipantRepository
}

// NewResultService создает новый сервис результатов
func NewResultService(
	quizRepo repository.QuizRepository,
	participantRepo repository.ParticipantRepository,
) *ResultService {
	return &ResultService{
		quizRepo:        quizRepo,
		participantRepo: participantRepo,
	}
}

// GetResults возвращает сводку результатов викторины. Доступ только владельцу.
func (s *ResultService) GetResults(ownerID, quizID uint) (*QuizResults, error) {
	quiz, participants, err := s.loadResultData(ownerID, quizID)
	if err != nil {
		return nil, err
	}
	results := BuildResults(quiz, participants)
	return &results, nil
}

// ExportCSV выгружает результаты викторины в CSV.
// Колонки: участник, счёт, суммарное время, затем по колонке на вопрос
// с текстом выбранного варианта; пропуски отмечаются как "No answer".
func (s *ResultService) ExportCSV(ownerID, quizID uint) ([]byte, error) {
	quiz, participants, err := s.loadResultData(ownerID, quizID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Participant", "Score", "Total Time"}
	for i := range quiz.Questions {
		header = append(header, quiz.Questions[i].Text)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range participants {
		if err := w.Write(s.exportRow(quiz, &participants[i])); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv export failed: %w", err)
	}

	log.Printf("[ResultService] CSV экспорт викторины #%d: %d участников", quizID, len(participants))
	return buf.Bytes(), nil
}

// ExportXLSX выгружает результаты викторины в книгу Excel
func (s *ResultService) ExportXLSX(ownerID, quizID uint) ([]byte, error) {
	quiz, participants, err := s.loadResultData(ownerID, quizID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[ResultService] Ошибка закрытия книги Excel: %v", err)
		}
	}()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	header := []interface{}{"Participant", "Score", "Total Time"}
	for i := range quiz.Questions {
		header = append(header, quiz.Questions[i].Text)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i := range participants {
		row := s.exportRow(quiz, &participants[i])
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write xlsx row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx export failed: %w", err)
	}

	log.Printf("[ResultService] XLSX экспорт викторины #%d: %d участников", quizID, len(participants))
	return buf.Bytes(), nil
}

// loadResultData загружает викторину и участников с проверкой владельца
func (s *ResultService) loadResultData(ownerID, quizID uint) (*entity.Quiz, []entity.Participant, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz.OwnerID != ownerID {
		return nil, nil, apperrors.ErrForbidden
	}

	participants, err := s.participantRepo.ListByQuiz(quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return quiz, participants, nil
}

// exportRow строит строку экспорта для одного участника
func (s *ResultService) exportRow(quiz *entity.Quiz, participant *entity.Participant) []string {
	outcome := ScoreParticipant(quiz, participant)
	row := []string{
		participant.DisplayName,
		strconv.Itoa(outcome.Score),
		fmt.Sprintf("%ds", outcome.TotalTimeSec),
	}
	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		answer := participant.AnswerFor(question.ID)
		if answer == nil {
			row = append(row, "No answer")
			continue
		}
		if option := question.OptionByID(answer.OptionID); option != nil {
			row = append(row, option.Text)
		} else {
			row = append(row, "No answer")
		}
	}
	return row
}

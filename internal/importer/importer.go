package importer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/service"
)

const (
	source         = "opentdb.com"
	maxQuestionLen = 255
	maxOptionLen   = 150
)

// Fetcher is satisfied by Client.
type Fetcher interface {
	Fetch(ctx context.Context, amount, category int) ([]Item, error)
}

// Result counts what one Import run did.
type Result struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type Importer struct {
	src Fetcher
	now service.Clock
	log *zap.Logger
}

func New(src Fetcher, now service.Clock, log *zap.Logger) *Importer {
	return &Importer{src: src, now: now, log: log}
}

// Import fetches a batch and stores the questions not already in the bank,
// owned by userID. Categories are created on first sight. Imported questions
// start active and published.
func (im *Importer) Import(ctx context.Context, q query.Querier, userID *int64, amount, category int) (Result, error) {
	items, err := im.src.Fetch(ctx, amount, category)
	if err != nil {
		return Result{}, err
	}
	res := Result{Fetched: len(items)}

	categories := service.NewCategoryService(q, im.now)
	questions := service.NewQuestionService(q, im.now)
	seen := map[string]int64{}

	for _, it := range items {
		in, ok := toInput(it)
		if !ok {
			im.log.Debug("skipping unsupported question", zap.String("type", it.Type), zap.String("question", it.Question))
			res.Skipped++
			continue
		}
		dup, err := questions.FindByText(ctx, in.Question)
		if err != nil {
			return res, err
		}
		if dup != nil {
			res.Skipped++
			continue
		}

		catID, ok := seen[it.Category]
		if !ok {
			catID, err = categoryID(ctx, categories, it.Category)
			if err != nil {
				return res, err
			}
			seen[it.Category] = catID
		}
		in.CategoryID = &catID

		if _, err := questions.Create(ctx, userID, in); err != nil {
			return res, fmt.Errorf("import %q: %w", in.Question, err)
		}
		res.Inserted++
	}
	im.log.Info("questions imported",
		zap.Int("fetched", res.Fetched),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func categoryID(ctx context.Context, s *service.CategoryService, name string) (int64, error) {
	c, err := s.FindByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if c == nil {
		if c, err = s.Create(ctx, service.CategoryInput{Name: name}); err != nil {
			return 0, err
		}
	}
	return c.ID, nil
}

func toInput(it Item) (service.QuestionInput, bool) {
	text := strings.TrimSpace(it.Question)
	if text == "" || utf8.RuneCountInString(text) > maxQuestionLen {
		return service.QuestionInput{}, false
	}

	var qt model.QuestionType
	switch it.Type {
	case "multiple":
		qt = model.MultipleChoice
	case "boolean":
		qt = model.Boolean
		if len(it.IncorrectAnswers) != 1 {
			return service.QuestionInput{}, false
		}
	default:
		return service.QuestionInput{}, false
	}

	diff := model.Difficulty(it.Difficulty)
	switch diff {
	case model.Easy, model.Medium, model.Hard:
	default:
		diff = model.Easy
	}

	choices := []service.ChoiceInput{{OptionText: it.CorrectAnswer, IsCorrect: true}}
	for _, a := range it.IncorrectAnswers {
		choices = append(choices, service.ChoiceInput{OptionText: a})
	}
	for _, c := range choices {
		if strings.TrimSpace(c.OptionText) == "" || utf8.RuneCountInString(c.OptionText) > maxOptionLen {
			return service.QuestionInput{}, false
		}
	}

	ref := source
	return service.QuestionInput{
		Question:     text,
		QuestionType: qt,
		Status:       model.StatusActive,
		Difficulty:   diff,
		IsPublished:  true,
		References:   &ref,
		Choices:      choices,
	}, true
}

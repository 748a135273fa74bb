package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warcalendar/backend/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// Fixture is one sample event. Rewards and countries become tags.
type Fixture struct {
	Title     string
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Rewards   string // comma separated
	Countries []string
}

// Tags returns the distinct tag names of f.
func (f Fixture) Tags() []string {
	seen := map[string]bool{}
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, r := range strings.Split(f.Rewards, ",") {
		add(r)
	}
	for _, c := range f.Countries {
		add(c)
	}
	return names
}

func day(m time.Month, d int) time.Time {
	return time.Date(2023, m, d, 0, 0, 0, 0, time.UTC)
}

// Calendar is the August 2023 sample calendar.
var Calendar = []Fixture{
	{"День НОАК", "Праздник", day(8, 1), day(8, 1), "Декаль, Доступная техника за ЗО", []string{"Китай"}},
	{"День ВДВ РФ", "Праздник", day(8, 2), day(8, 2), "Декаль", []string{"Россия"}},
	{"Первый полет Lightning", "Годовщина", day(8, 4), day(8, 4), "Доступная техника за ЗО", []string{"Великобритания"}},
	{"День ВКС РФ", "Праздник", day(8, 12), day(8, 12), "Декаль", []string{"Россия"}},
	{"Первый полет Tornado", "Годовщина", day(8, 14), day(8, 14), "Декаль, Скидка на доступный набор из магазина", []string{"Великобритания"}},
	{"День ВС Польши", "Праздник", day(8, 15), day(8, 15), "Декаль, Доступная техника за ЗО", []string{"Польша"}},
	{"День ВДВ США", "Праздник", day(8, 16), day(8, 16), "Декаль, Доступная техника за ЗО", []string{"США"}},
	{"День освобождение Парижа", "Праздник", day(8, 19), day(8, 19), "Декаль", []string{"Франция"}},
	{"Спуск на воду Prinz Eugen", "Годовщина", day(8, 22), day(8, 22), "Доступная техника за ЗО", []string{"Германия"}},
	{"Годовщина принятия МиГ-15 на вооружение", "Годовщина", day(8, 23), day(8, 23), "Доступная техника за ЗО", []string{"СССР"}},
	{"Завершение операции Багратион", "Годовщина", day(8, 29), day(8, 29), "Декаль, Специальный набор в магазине", []string{"СССР"}},
}

// Loader writes fixtures through the stores.
type Loader struct {
	Tags   *store.TagStore
	Events *store.EventStore
}

// Load inserts fixtures whose title is not present yet, creating missing
// tags on the way. It returns the number of events created.
func (l *Loader) Load(ctx context.Context, fixtures []Fixture) (int, error) {
	existing, err := l.Events.List(ctx, store.EventFilter{})
	if err != nil {
		return 0, err
	}
	titles := make(map[string]bool, len(existing))
	for _, e := range existing {
		titles[e.Title] = true
	}

	created := 0
	for _, f := range fixtures {
		if titles[f.Title] {
			continue
		}
		var tagIDs []uint
		for _, name := range f.Tags() {
			id, err := l.ensureTag(ctx, name)
			if err != nil {
				return created, err
			}
			tagIDs = append(tagIDs, id)
		}
		if _, err := l.Events.Create(ctx, store.EventFields{
			Title:     f.Title,
			Type:      f.Type,
			StartDate: f.StartDate,
			EndDate:   f.EndDate,
		}, tagIDs); err != nil {
			return created, fmt.Errorf("seed %q: %w", f.Title, err)
		}
		titles[f.Title] = true
		created++
	}
	return created, nil
}

func (l *Loader) ensureTag(ctx context.Context, name string) (uint, error) {
	tag, err := l.Tags.FindByName(ctx, name)
	if err == nil {
		return tag.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	tag, err = l.Tags.Create(ctx, name)
	if errors.Is(err, store.ErrConflict) {
		// Lost a race with another writer; the tag exists now.
		tag, err = l.Tags.FindByName(ctx, name)
	}
	if err != nil {
		return 0, err
	}
	return tag.ID, nil
}

// Fake generates n random fixtures dated within the given year.
func Fake(n int, year int, seed int64) []Fixture {
	faker := gofakeit.New(seed)
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, -1)

	fixtures := make([]Fixture, 0, n)
	for i := 0; i < n; i++ {
		start := faker.DateRange(from, to).Truncate(24 * time.Hour)
		fixtures = append(fixtures, Fixture{
			Title:     strings.TrimSuffix(faker.Sentence(3), "."),
			Type:      faker.RandomString([]string{"Праздник", "Годовщина"}),
			StartDate: start,
			EndDate:   start.AddDate(0, 0, faker.Number(0, 3)),
			Rewards:   faker.RandomString([]string{"Декаль", "Доступная техника за ЗО", "Специальный набор в магазине"}),
			Countries: []string{faker.Country()},
		})
	}
	return fixtures
}

package alpha

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session is one workout parsed from an export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is one exercise block of a session.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is a warm-up or working set. WeightKg is the added load for
// bodyweight-plus sets.
type Set struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}

// ParseError points at the export line that could not be read.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

const (
	columnHeader = "#;KG;REPS;RIR"
	dateLayout   = "2006-01-02 15:04"
)

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d{1,2}:\d{2})\s+h";"(.+)"$`)

	// "1. Hack Squats · Machine · 8 reps[ · modifiers]"[;"WU1 · 37,5 kg · 9 reps<br>..."]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;102,5;6;0
	setLine = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]*)$`)

	warmupEntry = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	errNoSession  = errors.New("exercise outside a session")
	errNoExercise = errors.New("set outside an exercise")
)

type parser struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

// Parse reads an Alpha Progression CSV export. Sessions are separated by
// blank lines; lines it does not recognise (notes) are ignored.
func Parse(r io.Reader) ([]Session, error) {
	var p parser
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if err := p.feed(strings.TrimSpace(sc.Text())); err != nil {
			return nil, &ParseError{Line: n, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

func (p *parser) feed(line string) error {
	if line == "" {
		p.closeSession()
		return nil
	}
	if line == columnHeader {
		return nil
	}
	if m := sessionLine.FindStringSubmatch(line); m != nil {
		p.closeSession()
		date, err := time.Parse(dateLayout, strings.Join(strings.Fields(m[2]), " "))
		if err != nil {
			return fmt.Errorf("session date %q: %w", m[2], err)
		}
		p.session = &Session{Name: m[1], Date: date, Duration: m[3]}
		return nil
	}
	if m := exerciseLine.FindStringSubmatch(line); m != nil {
		return p.startExercise(m)
	}
	if m := setLine.FindStringSubmatch(line); m != nil {
		return p.addSet(m)
	}
	return nil
}

func (p *parser) startExercise(m []string) error {
	if p.session == nil {
		return errNoSession
	}
	p.closeExercise()
	num, _ := strconv.Atoi(m[1])
	target, _ := strconv.Atoi(m[4])
	ex := &Exercise{
		Number:     num,
		Name:       strings.TrimSpace(m[2]),
		Equipment:  strings.TrimSpace(m[3]),
		TargetReps: target,
	}
	if m[6] != "" {
		warmups, err := parseWarmups(m[6])
		if err != nil {
			return err
		}
		ex.Sets = warmups
	}
	p.exercise = ex
	return nil
}

func (p *parser) addSet(m []string) error {
	if p.exercise == nil {
		return errNoExercise
	}
	num, _ := strconv.Atoi(m[1])
	reps, _ := strconv.Atoi(m[3])
	load, bw, err := parseLoad(m[2])
	if err != nil {
		return err
	}
	// RIR is informational; an unreadable value is kept as zero.
	rir, _ := parseDecimal(m[4])
	p.exercise.Sets = append(p.exercise.Sets, Set{
		Number:           num,
		WeightKg:         load,
		IsBodyweightPlus: bw,
		Reps:             reps,
		RIR:              rir,
	})
	return nil
}

func (p *parser) closeExercise() {
	if p.exercise == nil {
		return
	}
	p.session.Exercises = append(p.session.Exercises, *p.exercise)
	p.exercise = nil
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

// sessionGroup returns the split name of a session title:
// "Legs · Day 2 · Week 4 · Push-Pull-Legs" -> "Legs".
func sessionGroup(title string) string {
	name, _, _ := strings.Cut(title, " · ")
	return strings.TrimSpace(name)
}

// parseWarmups reads the "<br>"-joined warm-up list of an exercise header.
func parseWarmups(s string) ([]Set, error) {
	var sets []Set
	for _, entry := range strings.Split(s, "<br>") {
		m := warmupEntry.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		load, bw, err := parseLoad(m[2])
		if err != nil {
			return nil, fmt.Errorf("warm-up %s: %w", m[1], err)
		}
		num, _ := strconv.Atoi(m[1])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{
			Number:           num,
			WeightKg:         load,
			IsBodyweightPlus: bw,
			Reps:             reps,
			IsWarmup:         true,
		})
	}
	return sets, nil
}

// parseLoad reads a load column. A leading "+" marks load added to
// bodyweight: "+35" is (35, true), "102,5" is (102.5, false).
func parseLoad(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	rest, bw := strings.CutPrefix(s, "+")
	v, err := parseDecimal(rest)
	if err != nil {
		return 0, false, fmt.Errorf("load %q: %w", s, err)
	}
	return v, bw, nil
}

// parseDecimal accepts either a comma or a dot as the decimal separator.
// Empty input is zero.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

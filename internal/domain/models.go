package domain

import "time"

// Student is the per-user conversational state record. One row per Telegram
// identity; created on first /start, removed only by /forgetme or an admin.
type Student struct {
	ID               int64
	Verified         bool
	RealName         string // empty until name entry
	Group            string // cohort, e.g. "km31"; empty until chosen
	IsInputting      bool
	Continuation     string // continuation id, set iff IsInputting
	MainMessage      int    // message id of the reusable screen, 0 = none
	MainMessageFresh bool   // false after a raw send overwrote the slot
	IsAdmin          bool
	CreatedAt        time.Time
}

// StudentPatch is a partial update. Nil fields are left untouched; the whole
// patch is applied as a single UPDATE so paired fields (IsInputting and
// Continuation) commit together.
type StudentPatch struct {
	Verified         *bool
	RealName         *string
	Group            *string
	IsInputting      *bool
	Continuation     *string
	MainMessage      *int
	MainMessageFresh *bool
	IsAdmin          *bool
}

// GroupChat binds a Telegram group chat to a cohort, with the two push
// toggles read by the reminder service.
type GroupChat struct {
	ChatID           int64
	Cohort           string
	MorningSchedule  bool
	DeadlineReminder bool
}

// PendingVerification links a candidate awaiting approval to one admin
// notification message. One row per notified admin.
type PendingVerification struct {
	Cohort      string
	AdminID     int64
	CandidateID int64
	MessageID   int
}

// Debt is a deadline record fanned out to every student of a cohort at
// creation time.
type Debt struct {
	ID        int64
	StudentID int64
	Subject   string
	Body      string
	DueDate   time.Time // date-only semantics
	Done      bool
}

type Lesson struct {
	Cohort    string
	Day       string // localized day-of-week name
	Week      int    // 1 or 2
	StartTime string
	Subject   string
	ClassType string
	URL       string
}

type Material struct {
	Cohort string
	Name   string
	URL    string
}

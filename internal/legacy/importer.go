// Package legacy copies data out of the MongoDB deployment the e-voting
// system used before the SQL store.
package legacy

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// Collection names used by the mongoose models
const (
	CollectionUsers      = "users"
	CollectionCandidates = "candidates"
	CollectionElections  = "elections"
	CollectionVotes      = "votes"
	CollectionFeedback   = "feedbacks"
)

// Collections lists every collection in import order
var Collections = []string{
	CollectionUsers,
	CollectionCandidates,
	CollectionElections,
	CollectionVotes,
	CollectionFeedback,
}

// Source streams raw documents from one collection
type Source interface {
	Each(ctx context.Context, collection string, fn func(bson.Raw) error) error
}

// Store is the part of the repository the importer writes to
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	CreateElection(ctx context.Context, e *models.Election) error
	InsertVote(ctx context.Context, v *models.Vote) error
	ImportFeedback(ctx context.Context, f *models.Feedback) error
}

// Counts tallies the outcome for one collection
type Counts struct {
	Collection string `json:"collection"`
	Read       int    `json:"read"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// DocumentError records a document that could not be converted
type DocumentError struct {
	Collection string `json:"collection"`
	Document   string `json:"document"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// Report is the result of an import run
type Report struct {
	Collections []Counts        `json:"collections"`
	Errors      []DocumentError `json:"errors"`
}

// Totals sums every collection
func (r *Report) Totals() Counts {
	var t Counts
	for _, c := range r.Collections {
		t.Read += c.Read
		t.Imported += c.Imported
		t.Skipped += c.Skipped
		t.Failed += c.Failed
	}
	return t
}

// Importer copies legacy documents into the SQL store
type Importer struct {
	source Source
	store  Store
	log    logger.Logger
	dryRun bool
}

// Option configures an Importer
type Option func(*Importer)

// WithDryRun converts documents without writing them
func WithDryRun(dryRun bool) Option {
	return func(i *Importer) { i.dryRun = dryRun }
}

// New creates an importer
func New(source Source, store Store, log logger.Logger, opts ...Option) *Importer {
	i := &Importer{source: source, store: store, log: log}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports the given collections, or all of them when none are named.
// Rows that already exist are skipped, so a run can be repeated. Documents
// that fail conversion are reported and do not stop the run; store and
// source errors do.
func (i *Importer) Run(ctx context.Context, collections ...string) (*Report, error) {
	if len(collections) == 0 {
		collections = Collections
	}
	report := &Report{Collections: make([]Counts, 0, len(collections)), Errors: []DocumentError{}}

	for _, name := range collections {
		insert, err := i.inserter(name)
		if err != nil {
			return report, err
		}
		counts := Counts{Collection: name}
		err = i.source.Each(ctx, name, func(raw bson.Raw) error {
			counts.Read++
			err := insert(ctx, raw)
			switch {
			case err == nil:
				counts.Imported++
			case stderrors.Is(err, repository.ErrDuplicate):
				counts.Skipped++
			case stderrors.Is(err, errConvert):
				counts.Failed++
				docErr := DocumentError{Collection: name, Document: describe(raw), Err: err, Message: err.Error()}
				report.Errors = append(report.Errors, docErr)
				i.log.Warn("Skipping legacy document", "collection", name, "document", docErr.Document, "error", docErr.Message)
			default:
				return fmt.Errorf("%s %s: %w", name, describe(raw), err)
			}
			return nil
		})
		report.Collections = append(report.Collections, counts)
		if err != nil {
			return report, err
		}
		i.log.Info("Imported legacy collection",
			"collection", name,
			"read", counts.Read,
			"imported", counts.Imported,
			"skipped", counts.Skipped,
			"failed", counts.Failed,
			"dry_run", i.dryRun,
		)
	}
	return report, nil
}

// errConvert marks conversion failures so Run can tell them from store errors
var errConvert = stderrors.New("conversion failed")

type convertError struct {
	err error
}

func (e *convertError) Error() string        { return e.err.Error() }
func (e *convertError) Unwrap() error        { return e.err }
func (e *convertError) Is(target error) bool { return target == errConvert }

func (i *Importer) inserter(collection string) (func(context.Context, bson.Raw) error, error) {
	switch collection {
	case CollectionUsers:
		return insertWith(ConvertUser, unlessDryRun(i.dryRun, i.store.CreateUser)), nil
	case CollectionCandidates:
		return insertWith(ConvertCandidate, unlessDryRun(i.dryRun, i.store.CreateCandidate)), nil
	case CollectionElections:
		return insertWith(ConvertElection, unlessDryRun(i.dryRun, i.store.CreateElection)), nil
	case CollectionVotes:
		return insertWith(ConvertVote, unlessDryRun(i.dryRun, i.store.InsertVote)), nil
	case CollectionFeedback:
		return insertWith(ConvertFeedback, unlessDryRun(i.dryRun, i.store.ImportFeedback)), nil
	}
	return nil, fmt.Errorf("unknown legacy collection %q", collection)
}

func insertWith[T any](convert func(bson.Raw) (*T, error), write func(context.Context, *T) error) func(context.Context, bson.Raw) error {
	return func(ctx context.Context, raw bson.Raw) error {
		v, err := convert(raw)
		if err != nil {
			return &convertError{err}
		}
		return write(ctx, v)
	}
}

// unlessDryRun drops writes when dryRun is set
func unlessDryRun[T any](dryRun bool, write func(context.Context, *T) error) func(context.Context, *T) error {
	if !dryRun {
		return write
	}
	return func(context.Context, *T) error { return nil }
}

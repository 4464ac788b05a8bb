// Package publisher sends the suites of a Manager to ReportPortal as one
// launch.
package publisher

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/reportportal"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/suite"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const (
	DefaultMaxNameLength = 511
	DefaultThreads       = 8

	attachmentName = "Entire_log.txt"
	attachmentMime = "text/plain"
)

var tracebackRe = regexp.MustCompile(`(?m)^(Traceback[\s\S]*?)(?:^\s*$|\z)`)

// Service is the part of the ReportPortal API used to publish a launch.
type Service interface {
	StartLaunch(ctx context.Context, req reportportal.StartLaunchRequest) (string, error)
	StartItem(ctx context.Context, parentID string, req reportportal.StartItemRequest) (string, error)
	Log(ctx context.Context, req reportportal.LogRequest) error
	FinishItem(ctx context.Context, itemID string, req reportportal.FinishItemRequest) error
	FinishLaunch(ctx context.Context, req reportportal.FinishLaunchRequest) error
}

type Options struct {
	LaunchName  string
	Attributes  map[string]string
	Description string

	// IgnoreSkipped drops skipped cases entirely.
	IgnoreSkipped bool
	// TracebackOnly logs only the last Python traceback of a failure.
	TracebackOnly bool
	// FullLogAttachment attaches the whole failure text when TracebackOnly
	// shortened it.
	FullLogAttachment bool

	Threads int
	// MaxNameLength caps case names, 0 means DefaultMaxNameLength and a
	// negative value disables the cap.
	MaxNameLength int

	LaunchStartTime *int64
	LaunchEndTime   *int64

	Clock suite.Clock
}

type Publisher struct {
	service Service
	manager *suite.Manager
	opts    Options
}

func New(service Service, manager *suite.Manager, opts Options) *Publisher {
	if opts.MaxNameLength == 0 {
		opts.MaxNameLength = DefaultMaxNameLength
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Publisher{service: service, manager: manager, opts: opts}
}

// Publish creates the launch and every item below it, returning the launch
// id. When anything fails after the launch was started, the launch is
// finished as FAILED before the error is returned.
func (p *Publisher) Publish(ctx context.Context) (string, error) {
	launchID, err := p.publish(ctx)
	if err == nil || launchID == "" {
		return launchID, err
	}

	end := p.opts.Clock().UnixMilli()
	if p.opts.LaunchEndTime != nil {
		end = *p.opts.LaunchEndTime
	}
	ferr := p.service.FinishLaunch(context.WithoutCancel(ctx), reportportal.FinishLaunchRequest{
		EndTime: end,
		Status:  reportportal.StatusFailed,
	})
	if ferr != nil {
		log.WithError(ferr).WithField("launch", launchID).Error("Unable to finish the failed launch")
	}
	return launchID, err
}

func (p *Publisher) publish(ctx context.Context) (string, error) {
	start := p.manager.OldestStartTime()
	if p.opts.LaunchStartTime != nil {
		start = *p.opts.LaunchStartTime
	}
	launchID, err := p.service.StartLaunch(ctx, reportportal.StartLaunchRequest{
		Name:        p.opts.LaunchName,
		StartTime:   start,
		Description: p.opts.Description,
		Attributes:  reportportal.Attributes(p.opts.Attributes),
	})
	if err != nil {
		return "", err
	}

	for _, s := range p.manager.Suites() {
		if err := p.publishSuite(ctx, s); err != nil {
			return launchID, err
		}
	}

	end := p.manager.NewestEndTime()
	if p.opts.LaunchEndTime != nil {
		end = *p.opts.LaunchEndTime
	}
	if err := p.service.FinishLaunch(ctx, reportportal.FinishLaunchRequest{EndTime: end}); err != nil {
		return launchID, err
	}
	return launchID, nil
}

func (p *Publisher) publishSuite(ctx context.Context, s *suite.Suite) error {
	itemID, err := p.service.StartItem(ctx, "", reportportal.StartItemRequest{
		Name:      s.Name(),
		StartTime: s.StartTime(),
		Type:      reportportal.ItemTypeSuite,
	})
	if err != nil {
		return errors.Wrapf(err, "publishing suite %q of %s", s.Name(), s.File())
	}
	logger := log.WithFields(log.Fields{"suite": s.Name(), "file": s.File()})
	logger.Debugf("Publishing %d test cases", len(s.Cases()))

	jobs := make([]job, 0, len(s.Cases()))
	for _, c := range s.Cases() {
		jobs = append(jobs, job{tc: c, parentID: itemID})
	}
	if err := runPool(ctx, p.opts.Threads, jobs, p.publishCase); err != nil {
		return err
	}

	status := reportportal.StatusPassed
	if s.Status() == suite.StatusFailed {
		status = reportportal.StatusFailed
	}
	if err := p.service.FinishItem(ctx, itemID, reportportal.FinishItemRequest{
		EndTime: s.EndTime(),
		Status:  status,
	}); err != nil {
		return errors.Wrapf(err, "finishing suite %q", s.Name())
	}
	logger.WithField("status", status).Info("Published test suite")
	return nil
}

func (p *Publisher) publishCase(ctx context.Context, j job) error {
	raw := j.tc.Raw()
	outcome := raw.Status()
	if outcome == api.TestStatusSkipped && p.opts.IgnoreSkipped {
		return nil
	}

	start, end := j.tc.Times(p.opts.Clock)
	name := suite.TruncateName(j.tc.Name(), p.opts.MaxNameLength)
	itemID, err := p.service.StartItem(ctx, j.parentID, reportportal.StartItemRequest{
		Name:      name,
		StartTime: start,
		Type:      j.tc.ItemType(),
	})
	if err != nil {
		return errors.Wrapf(err, "publishing test case %q", name)
	}

	for _, out := range raw.SystemOut {
		if strings.TrimSpace(out) == "" {
			continue
		}
		if err := p.log(ctx, itemID, start, out, reportportal.LevelInfo, nil); err != nil {
			return err
		}
	}

	var issue *reportportal.Issue
	var status string
	switch outcome {
	case api.TestStatusSkipped:
		status = reportportal.StatusSkipped
		issue = &reportportal.Issue{IssueType: reportportal.IssueNotIssue}
		if err := p.log(ctx, itemID, start, raw.Skipped.String(), reportportal.LevelDebug, nil); err != nil {
			return err
		}
	case api.TestStatusFail, api.TestStatusError:
		status = reportportal.StatusFailed
		message, attachment := p.failureLog(strings.Join(raw.Messages(), "\n"))
		if err := p.log(ctx, itemID, start, message, reportportal.LevelError, attachment); err != nil {
			return err
		}
	default:
		status = reportportal.StatusPassed
	}

	if err := p.service.FinishItem(ctx, itemID, reportportal.FinishItemRequest{
		EndTime: end,
		Status:  status,
		Issue:   issue,
	}); err != nil {
		return errors.Wrapf(err, "finishing test case %q", name)
	}
	return nil
}

// failureLog picks the message logged for a failed case and the optional
// attachment carrying the full text.
func (p *Publisher) failureLog(text string) (string, *reportportal.Attachment) {
	if !p.opts.TracebackOnly {
		return text, nil
	}
	message := text
	if tb, ok := LastTraceback(text); ok {
		message = tb
	}
	if p.opts.FullLogAttachment && message != text {
		return message, &reportportal.Attachment{
			Name: attachmentName,
			Data: []byte(text),
			Mime: attachmentMime,
		}
	}
	return message, nil
}

func (p *Publisher) log(ctx context.Context, itemID string, at int64, message, level string, a *reportportal.Attachment) error {
	err := p.service.Log(ctx, reportportal.LogRequest{
		ItemID:     itemID,
		Time:       at,
		Message:    message,
		Level:      level,
		Attachment: a,
	})
	return errors.Wrapf(err, "logging %s message", level)
}

// LastTraceback returns the last block of text starting with "Traceback" at
// the beginning of a line and ending before the next blank line.
func LastTraceback(text string) (string, bool) {
	matches := tracebackRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}

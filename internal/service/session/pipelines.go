package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/vcfbot/internal/convert"
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/replies"
	"github.com/ignite/vcfbot/internal/vcard"
)

// runRawText builds one card file from pasted text. A parse failure keeps
// the session waiting for another attempt.
func (m *Machine) runRawText(ctx context.Context, s *Session, text string) {
	res, err := vcard.BuildFromRawText(text, m.policy)
	if err != nil {
		logger.Info("raw text rejected", "session", s.Key, "reason", err)
		m.send(ctx, s, replies.InvalidFormat, nil, replies.Markdown(nil))
		return
	}
	s.State = domain.StateProcessing
	started := m.now()

	var stats []map[string]interface{}
	for _, st := range res.Stats {
		stats = append(stats, map[string]interface{}{"name": st.Name, "count": st.Count})
	}
	caption := m.replies.Text(replies.RawTextCaption, replies.Vars{
		"filename": res.Filename,
		"stats":    stats,
		"total":    len(res.Contacts),
	})
	file := domain.OutputFile{
		Name:    res.Filename,
		Data:    []byte(vcard.Serialize(res.Contacts)),
		Entries: len(res.Contacts),
	}

	job := domain.JobSummary{SessionKey: s.Key, Mode: domain.ModeTextToCard, StartedAt: started}
	if err := m.gw.SendFile(ctx, s.Key, file.Name, file.Data, caption); err != nil {
		logger.Warn("send file failed", "session", s.Key, "file", file.Name, "error", err)
		m.send(ctx, s, replies.InternalError, nil, domain.MessageOptions{})
		job.FilesFailed = 1
	} else {
		m.archive(ctx, s, file)
		job.FilesOut = 1
		job.Entries = file.Entries
	}
	m.record(ctx, job)
	s.Reset()
}

// runCvV1 produces one card file per collected upload, every contact named
// after contactName.
func (m *Machine) runCvV1(ctx context.Context, s *Session, contactName string) {
	files := s.Collected
	s.State = domain.StateProcessing
	started := m.now()

	names := convert.DefaultCardNames(files)
	label := "🔹 Default"
	if s.Naming == domain.NamingCustom {
		label = "🎨 Custom"
		seq, err := naming.CustomSequence(s.Seed, len(files), naming.ExtCard)
		if err != nil {
			m.abort(ctx, s, err)
			return
		}
		names = seq
	}

	m.send(ctx, s, replies.Processing, replies.Vars{"ext": "vcf"}, domain.MessageOptions{})

	outputs, err := convert.CardsPerFile(files, names, contactName, m.policy)
	if err != nil {
		m.abort(ctx, s, err)
		return
	}
	m.complete(ctx, s, started, outputs, replies.Vars{
		"mode_label":   label,
		"contact_name": contactName,
		"unit":         "kontak",
	})
}

// runCvV2 splits the merged numbers into batches and writes one card file
// per batch, named by the seed sequence.
func (m *Machine) runCvV2(ctx context.Context, s *Session, spec BatchSpec) {
	s.State = domain.StateProcessing
	started := m.now()

	outputs, err := convert.CardBatches(s.Merged, spec.Seed, spec.ContactName, spec.PerFile, spec.FileCount, m.policy)
	if err != nil {
		m.abort(ctx, s, err)
		return
	}

	m.send(ctx, s, replies.Processing, replies.Vars{"ext": "vcf"}, domain.MessageOptions{})
	m.complete(ctx, s, started, outputs, replies.Vars{
		"mode_label":   "🔧 V2",
		"contact_name": spec.ContactName,
		"unit":         "kontak",
	})
}

// runCardToText writes one text file per collected card upload.
func (m *Machine) runCardToText(ctx context.Context, s *Session) {
	s.State = domain.StateProcessing
	started := m.now()
	m.complete(ctx, s, started, convert.TextPerCard(s.Collected, m.policy), replies.Vars{"unit": "nomor"})
}

// runMerge writes the deduplicated union of the collected uploads to one
// file called name.
func (m *Machine) runMerge(ctx context.Context, s *Session, name string) {
	s.State = domain.StateProcessing
	started := m.now()

	var file domain.OutputFile
	unit := "nomor"
	if s.Mode == domain.ModeMergeCard {
		file = convert.MergeCards(s.Collected, name)
		unit = "kontak"
	} else {
		file = convert.MergeNumbers(s.Collected, name, m.policy)
	}

	m.complete(ctx, s, started, []domain.OutputFile{file}, replies.Vars{"unit": unit})
}

// abort reports a build failure and drops the session back to idle.
func (m *Machine) abort(ctx context.Context, s *Session, err error) {
	logger.Error("build outputs failed", "session", s.Key, "mode", string(s.Mode), "error", err)
	m.send(ctx, s, replies.InternalError, nil, domain.MessageOptions{})
	s.Reset()
}

// complete delivers outputs, reports the counts and resets the session.
func (m *Machine) complete(ctx context.Context, s *Session, started time.Time, outputs []domain.OutputFile, vars replies.Vars) {
	ok, failed, entries := m.deliver(ctx, s, outputs)

	for _, k := range []string{"mode_label", "contact_name"} {
		if _, set := vars[k]; !set {
			vars[k] = ""
		}
	}
	vars["ok"] = ok
	vars["total"] = len(outputs)
	vars["failed"] = failed
	vars["entries"] = entries
	m.send(ctx, s, replies.Summary, vars, replies.Markdown(nil))

	m.record(ctx, domain.JobSummary{
		SessionKey:  s.Key,
		Mode:        s.Mode,
		FilesIn:     len(s.Collected),
		FilesOut:    ok,
		FilesFailed: failed,
		Entries:     entries,
		StartedAt:   started,
	})
	logger.Info("job completed",
		"session", s.Key, "mode", string(s.Mode), "files_out", ok, "files_failed", failed, "entries", entries)
	s.Reset()
}

// deliver sends outputs in order, pausing between sends. A failed send is
// counted and the rest still go out; a cancelled context counts every
// unsent file as failed.
func (m *Machine) deliver(ctx context.Context, s *Session, outputs []domain.OutputFile) (ok, failed, entries int) {
	for i, f := range outputs {
		if i > 0 && !m.pause(ctx) {
			failed += len(outputs) - i
			logger.Warn("delivery cancelled", "session", s.Key, "unsent", len(outputs)-i)
			break
		}
		if err := m.gw.SendFile(ctx, s.Key, f.Name, f.Data, ""); err != nil {
			logger.Warn("send file failed", "session", s.Key, "file", f.Name, "error", err)
			failed++
			continue
		}
		ok++
		entries += f.Entries
		m.archive(ctx, s, f)
	}
	return ok, failed, entries
}

func (m *Machine) pause(ctx context.Context) bool {
	if m.sendDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(m.sendDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Machine) archive(ctx context.Context, s *Session, f domain.OutputFile) {
	if m.archiver == nil {
		return
	}
	if err := m.archiver.Archive(ctx, s.Key, f); err != nil {
		logger.Warn("archive output failed", "session", s.Key, "file", f.Name, "error", err)
	}
}

func (m *Machine) record(ctx context.Context, job domain.JobSummary) {
	if m.recorder == nil {
		return
	}
	job.ID = uuid.NewString()
	job.CompletedAt = m.now()
	if err := m.recorder.Record(ctx, job); err != nil {
		logger.Warn("record job failed", "session", job.SessionKey, "job", job.ID, "error", err)
	}
}

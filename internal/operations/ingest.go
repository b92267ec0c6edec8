package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"healthvault/internal/archive"
	"healthvault/internal/dataprocessing"
	"healthvault/internal/security"
	"healthvault/internal/session"
	"healthvault/pkg/contracts/domain"
)

// Result is a successful ingest: the transient record set, and the
// session holding the key and the encrypted document. The three are
// consistent by construction; a failed ingest produces none of them.
type Result struct {
	Session *session.Session
	Data    *domain.ParsedHealthData
}

// Ingestor runs the extract-parse-protect pipeline for one upload.
type Ingestor struct {
	extractor *archive.Extractor
	parser    *dataprocessing.Parser
	store     *session.Store
	sink      ProgressSink
	logger    *slog.Logger
}

// NewIngestor wires the pipeline. A nil sink discards progress events.
func NewIngestor(extractor *archive.Extractor, parser *dataprocessing.Parser, store *session.Store, sink ProgressSink, logger *slog.Logger) *Ingestor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Ingestor{
		extractor: extractor,
		parser:    parser,
		store:     store,
		sink:      sink,
		logger:    logger.With(slog.String("component", "ingestor")),
	}
}

// Run executes the pipeline on one input file. The session is
// registered in the store only after every stage succeeds, so a failed
// upload leaves no partial key or blob behind.
func (in *Ingestor) Run(ctx context.Context, name string, r io.ReaderAt, size int64) (*Result, error) {
	in.sink.Publish(ProgressEvent{Stage: StageExtract, Percent: 0, Message: name})

	payload, err := in.extractor.Extract(name, r, size)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	in.sink.Publish(ProgressEvent{Stage: StageExtract, Percent: 100})

	in.sink.Publish(ProgressEvent{Stage: StageParse, Percent: 0})
	executor := dataprocessing.SelectExecutor(in.parser, in.logger, len(payload))
	data, err := executor.RunParse(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	in.sink.Publish(ProgressEvent{Stage: StageParse, Percent: 100})

	key, err := security.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	in.sink.Publish(ProgressEvent{Stage: StageEncrypt, Percent: 0})
	blob, err := security.EncryptJSON(data, key)
	if err != nil {
		key.Clear()
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	in.sink.Publish(ProgressEvent{Stage: StageEncrypt, Percent: 100})

	sess := session.New(name, size, 1)
	sess.AttachKey(key)
	sess.SetBlob(blob)
	sess.Seal()
	in.store.Put(sess)

	in.logger.Info("ingest completed",
		slog.String("upload_id", sess.ID),
		slog.String("file", name),
		slog.Int64("size", size))

	return &Result{Session: sess, Data: data}, nil
}

// RunFile is a path convenience over Run for CLI use.
func (in *Ingestor) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := openReaderAt(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return in.Run(ctx, f.name, f.file, f.size)
}

package workerproc

import (
	"context"
	"fmt"
	"io"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/step"
)

// RunWorkerMain is the body of the hidden `steprunner worker` subcommand.
// It reads exactly one Request from in, looks className up in a catalog
// built from enum over the request's own namespace list (so the worker's
// view of the catalog matches whatever the coordinator planned against),
// constructs the step with the resolved args, runs it, and writes one
// Response to out.
//
// The worker's in-memory step instance is discarded the moment this
// function returns — nothing about it survives past the Response write,
// per spec.md §3's ownership rule for worker processes.
func RunWorkerMain(ctx context.Context, enum catalog.Enumerator, in io.Reader, out io.Writer) error {
	reqBytes, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("worker: read request: %w", err)
	}
	req, err := DecodeRequest(reqBytes)
	if err != nil {
		return err
	}
	if err := CheckProtocol(req.ProtocolVersion); err != nil {
		return writeErrorResponse(out, req, err)
	}

	cat, err := catalog.Build(enum, req.Namespaces)
	if err != nil {
		return writeErrorResponse(out, req, fmt.Errorf("worker: build catalog: %w", err))
	}
	entry, ok := cat.Lookup(req.ClassName)
	if !ok {
		return writeErrorResponse(out, req, fmt.Errorf("worker: class %q not found in catalog", req.ClassName))
	}

	s, err := entry.Factory(step.ConstructArgs(req.Args))
	if err != nil {
		return writeErrorResponse(out, req, fmt.Errorf("worker: construct %q: %w", req.ClassName, err))
	}

	if err := s.Run(ctx); err != nil {
		return writeErrorResponse(out, req, fmt.Errorf("worker: run %q: %w", req.ClassName, err))
	}

	resp := Response{
		ProtocolVersion: ProtocolVersion,
		DispatchID:      req.DispatchID,
		ClassName:       req.ClassName,
		Productions:     s.ProductionValues(),
	}
	if t, ok := s.LastRunTime(); ok {
		tc := t
		resp.LastRunTime = &tc
	}
	return writeResponse(out, resp)
}

func writeResponse(out io.Writer, resp Response) error {
	payload, err := Encode(resp)
	if err != nil {
		return fmt.Errorf("worker: encode response: %w", err)
	}
	_, err = out.Write(payload)
	return err
}

func writeErrorResponse(out io.Writer, req Request, cause error) error {
	resp := Response{
		ProtocolVersion: ProtocolVersion,
		DispatchID:      req.DispatchID,
		ClassName:       req.ClassName,
		Error:           cause.Error(),
	}
	if werr := writeResponse(out, resp); werr != nil {
		return werr
	}
	return cause
}

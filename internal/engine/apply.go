package engine

import (
	"context"
	"fmt"

	"alexls/internal/translate"
)

// QuickFixRequest applies one replacement over a diagnostic's range.
type QuickFixRequest struct {
	Diagnostic  *translate.Diagnostic
	URI         string
	Replacement string
}

// FixAllRequest applies every fix of the first diagnostic's rule group.
type FixAllRequest struct {
	URI         string
	Diagnostics []translate.Diagnostic
}

// EditApplier submits accepted fixes to the editor and re-validates.
type EditApplier struct {
	o *Orchestrator
}

// ApplyFix replaces the diagnostic's range with req.Replacement against
// the latest document version, then forces one re-validation. Invalid
// requests fail with ErrInvalidFix before anything is sent.
func (a *EditApplier) ApplyFix(ctx context.Context, req QuickFixRequest) error {
	if req.Diagnostic == nil || req.Replacement == "" {
		return ErrInvalidFix
	}
	o := a.o
	doc, ok := o.docs.Get(req.URI)
	if !ok {
		return fmt.Errorf("%w: %s is not open", ErrStaleVersion, req.URI)
	}
	o.emit(ctx, StatusEvent{Kind: StatusApplyQuickFix, URI: req.URI})
	edit := VersionedEdit{
		URI:     req.URI,
		Version: doc.Version,
		Edits:   []TextEdit{{Range: req.Diagnostic.Range, NewText: req.Replacement}},
	}
	if err := a.submit(ctx, edit); err != nil {
		return err
	}
	_, err := o.Validate(ctx, req.URI, ValidateOptions{Force: true})
	return err
}

// ApplyFixesInFile runs a fix pass scoped to the rule group of the first
// diagnostic and submits the resulting edits as one change.
func (a *EditApplier) ApplyFixesInFile(ctx context.Context, req FixAllRequest) error {
	if len(req.Diagnostics) == 0 {
		return ErrInvalidFix
	}
	o := a.o
	doc, ok := o.docs.Get(req.URI)
	if !ok {
		return fmt.Errorf("%w: %s is not open", ErrStaleVersion, req.URI)
	}
	group := translate.Group(req.Diagnostics[0].Code)
	o.log.Info("fixing rule group in file", "uri", req.URI, "group", group)
	edits, err := o.Validate(ctx, req.URI, ValidateOptions{Fix: true, FixRules: group})
	if err != nil {
		return err
	}
	if len(edits) == 0 {
		return nil
	}
	o.emit(ctx, StatusEvent{Kind: StatusApplyQuickFix, URI: req.URI})
	if err := a.submit(ctx, VersionedEdit{URI: req.URI, Version: doc.Version, Edits: edits}); err != nil {
		return err
	}
	_, err = o.Validate(ctx, req.URI, ValidateOptions{Force: true})
	return err
}

func (a *EditApplier) submit(ctx context.Context, edit VersionedEdit) error {
	o := a.o
	err := o.edits.Submit(ctx, edit)
	o.metrics.FixSubmitted(err)
	if err != nil {
		o.log.Warn("edit not applied", "uri", edit.URI, "version", edit.Version, "err", err)
		return fmt.Errorf("apply edit to %s: %w", edit.URI, err)
	}
	return nil
}

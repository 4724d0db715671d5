package document

import (
	"errors"
	"slices"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/zerr"
)

// step is one executed command with the means to reverse and repeat it.
type step struct {
	label string
	undo  func() error
	redo  func() error
}

type transaction struct {
	label string
	steps []step
}

func (t *transaction) revert() error {
	var errs []error
	for _, s := range slices.Backward(t.steps) {
		if err := s.undo(); err != nil {
			errs = append(errs, zerr.With(err, "command", s.label))
		}
	}
	return errors.Join(errs...)
}

func (t *transaction) replay() error {
	for _, s := range t.steps {
		if err := s.redo(); err != nil {
			return zerr.With(err, "command", s.label)
		}
	}
	return nil
}

// BeginTransaction opens a transaction, nested inside the current one if any.
func (d *Document) BeginTransaction(label string) {
	d.open = append(d.open, &transaction{label: label})
}

// EmitCommand executes cmd inside the innermost open transaction.
func (d *Document) EmitCommand(cmd domain.Command) (domain.CommandResult, error) {
	if len(d.open) == 0 {
		return domain.CommandResult{}, zerr.With(zerr.Wrap(domain.ErrNoActiveTransaction, "cannot emit command"),
			"command", cmd.Label())
	}

	var (
		s   step
		res domain.CommandResult
		err error
	)
	switch c := cmd.(type) {
	case domain.RemoveCommand:
		s, err = d.execRemove(c)
	case domain.InstantiateCommand:
		s, res, err = d.execInstantiate(c)
	default:
		return domain.CommandResult{}, zerr.With(zerr.Wrap(domain.ErrUnsupportedCommand, "cannot emit command"),
			"command", cmd.Label())
	}
	if err != nil {
		return domain.CommandResult{}, zerr.With(err, "command", cmd.Label())
	}

	top := d.open[len(d.open)-1]
	top.steps = append(top.steps, s)
	return res, nil
}

// FinishTransaction closes the innermost transaction. A nested transaction is folded into
// its parent; an outermost one becomes a single undo entry.
func (d *Document) FinishTransaction() error {
	t, err := d.pop("cannot finish transaction")
	if err != nil {
		return err
	}
	if len(d.open) > 0 {
		parent := d.open[len(d.open)-1]
		parent.steps = append(parent.steps, t.steps...)
		return nil
	}
	if len(t.steps) > 0 {
		d.undo = append(d.undo, t)
		d.redo = nil
	}
	return nil
}

// CancelTransaction closes the innermost transaction and reverts its commands.
func (d *Document) CancelTransaction() error {
	t, err := d.pop("cannot cancel transaction")
	if err != nil {
		return err
	}
	return t.revert()
}

// Undo reverts the most recent finished transaction.
func (d *Document) Undo() error {
	t, err := d.navigate(&d.undo, "cannot undo")
	if err != nil {
		return err
	}
	if err := t.revert(); err != nil {
		return err
	}
	d.redo = append(d.redo, t)
	return nil
}

// Redo re-applies the most recently undone transaction.
func (d *Document) Redo() error {
	t, err := d.navigate(&d.redo, "cannot redo")
	if err != nil {
		return err
	}
	if err := t.replay(); err != nil {
		return err
	}
	d.undo = append(d.undo, t)
	return nil
}

// UndoLabels returns the labels of the undo stack, most recent last.
func (d *Document) UndoLabels() []string {
	labels := make([]string, len(d.undo))
	for i, t := range d.undo {
		labels[i] = t.label
	}
	return labels
}

func (d *Document) pop(msg string) (*transaction, error) {
	if len(d.open) == 0 {
		return nil, zerr.Wrap(domain.ErrNoActiveTransaction, msg)
	}
	t := d.open[len(d.open)-1]
	d.open = d.open[:len(d.open)-1]
	return t, nil
}

func (d *Document) navigate(stack *[]*transaction, msg string) (*transaction, error) {
	if len(d.open) > 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrTransactionOpen, msg), "transaction", d.open[len(d.open)-1].label)
	}
	if len(*stack) == 0 {
		return nil, zerr.Wrap(domain.ErrNothingToUndo, msg)
	}
	t := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]
	return t, nil
}

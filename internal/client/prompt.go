package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/atinyakov/cerevyn/internal/models"
)

// ErrInputClosed is returned when the input ends in the middle of a prompt.
var ErrInputClosed = errors.New("input closed")

// Prompter asks the user for values line by line.
type Prompter struct {
	in         *bufio.Scanner
	out        io.Writer
	readSecret func() (string, error)
	today      func() time.Time
}

// NewPrompter reads answers from in and writes questions to out. When in is
// a terminal, passwords are read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewScanner(in), out: out, today: time.Now}
	p.readSecret = p.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

func (p *Prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// Password prints label and reads an answer that is not echoed on terminals.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readSecret()
}

// Registration asks for the fields of a new account.
func (p *Prompter) Registration() (Registration, error) {
	var (
		r   Registration
		err error
	)
	if r.FullName, err = p.Line("Full name: "); err != nil {
		return r, err
	}
	if r.Email, err = p.Line("Email: "); err != nil {
		return r, err
	}
	if r.Password, err = p.Password("Password (min 8 characters): "); err != nil {
		return r, err
	}
	if r.FarmName, err = p.Line("Farm name (optional): "); err != nil {
		return r, err
	}
	return r, nil
}

// Credentials asks for email and password.
func (p *Prompter) Credentials() (Credentials, error) {
	var (
		c   Credentials
		err error
	)
	if c.Email, err = p.Line("Email: "); err != nil {
		return c, err
	}
	if c.Password, err = p.Password("Password: "); err != nil {
		return c, err
	}
	return c, nil
}

// ItemInput asks for a new item. Blank optional answers keep the server defaults;
// a blank planted date means today.
func (p *Prompter) ItemInput() (models.ItemInput, error) {
	var in models.ItemInput

	name, err := p.Line("Name: ")
	if err != nil {
		return in, err
	}
	in.Name = name

	category, err := p.Line("Category (Grains/Vegetables/Fruits/Legumes/Others) [Others]: ")
	if err != nil {
		return in, err
	}
	in.Category = models.Category(category)

	qty, err := p.Line("Quantity: ")
	if err != nil {
		return in, err
	}
	q, err := strconv.ParseFloat(qty, 64)
	if err != nil {
		return in, fmt.Errorf("quantity %q is not a number", qty)
	}
	in.Quantity = &q

	unit, err := p.Line("Unit (kg/tons/quintals/units) [kg]: ")
	if err != nil {
		return in, err
	}
	in.Unit = models.Unit(unit)

	planted, err := p.Line("Planted date (YYYY-MM-DD) [today]: ")
	if err != nil {
		return in, err
	}
	pd := models.NewDate(p.today())
	if planted != "" {
		if pd, err = models.ParseDate(planted); err != nil {
			return in, err
		}
	}
	in.PlantedDate = &pd

	harvest, err := p.Line("Harvest date (YYYY-MM-DD, optional): ")
	if err != nil {
		return in, err
	}
	if harvest != "" {
		hd, err := models.ParseDate(harvest)
		if err != nil {
			return in, err
		}
		in.HarvestDate = &hd
	}

	status, err := p.Line("Status (growing/harvested/sold) [growing]: ")
	if err != nil {
		return in, err
	}
	in.Status = models.Status(status)

	return in, nil
}

// ItemPatch asks for the fields to change. Blank answers leave a field untouched;
// "-" as the harvest date clears it.
func (p *Prompter) ItemPatch() (models.ItemPatch, error) {
	var patch models.ItemPatch

	answers := make(map[string]string, 7)
	for _, q := range []struct{ key, label string }{
		{"name", "New name: "},
		{"category", "New category: "},
		{"quantity", "New quantity: "},
		{"unit", "New unit: "},
		{"planted", "New planted date (YYYY-MM-DD): "},
		{"harvest", "New harvest date (YYYY-MM-DD, - to clear): "},
		{"status", "New status: "},
	} {
		a, err := p.Line(q.label)
		if err != nil {
			return patch, err
		}
		answers[q.key] = a
	}

	if v := answers["name"]; v != "" {
		patch.Name = &v
	}
	if v := answers["category"]; v != "" {
		c := models.Category(v)
		patch.Category = &c
	}
	if v := answers["quantity"]; v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return patch, fmt.Errorf("quantity %q is not a number", v)
		}
		patch.Quantity = &q
	}
	if v := answers["unit"]; v != "" {
		u := models.Unit(v)
		patch.Unit = &u
	}
	if v := answers["planted"]; v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return patch, err
		}
		patch.PlantedDate = &d
	}
	switch v := answers["harvest"]; v {
	case "":
	case "-":
		patch.ClearHarvestDate = true
	default:
		d, err := models.ParseDate(v)
		if err != nil {
			return patch, err
		}
		patch.HarvestDate = &d
	}
	if v := answers["status"]; v != "" {
		s := models.Status(v)
		patch.Status = &s
	}
	return patch, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"career-guide/internal/domain"
)

var errInputClosed = errors.New("input closed before the quiz finished")

func (r *terminalRespondent) PresentQuestion(ctx context.Context, trait domain.Trait, text string) (domain.Rating, error) {
	fmt.Fprintf(r.out, "\n[%s] %s\n", trait.Name(), text)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		line, err := r.prompt("(1-5): ")
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(line)
		rating := domain.Rating(n)
		if convErr == nil && rating.Valid() {
			return rating, nil
		}
		fmt.Fprintln(r.out, "Please enter a number from 1 to 5.")
	}
}

func (r *terminalRespondent) PresentMCQ(ctx context.Context, index, total int, mcq domain.MCQ) (string, error) {
	fmt.Fprintf(r.out, "\nQuestion %d/%d: %s\n", index, total, mcq.Question)
	for _, c := range domain.AllChoices {
		fmt.Fprintf(r.out, "  %s) %s\n", c, mcq.Options.Get(c))
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := r.prompt("(A/B/C/D): ")
		if err != nil {
			return "", err
		}
		choice := strings.ToUpper(line)
		if domain.ValidChoice(choice) {
			return choice, nil
		}
		fmt.Fprintln(r.out, "Please choose A, B, C or D.")
	}
}

func (r *terminalRespondent) prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	line, err := r.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return line, nil
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"fmt"
	"strconv"
)

// Prompt is a symbolic boot stage hint derived from a console line.
type Prompt int

const (
	// PromptNone is returned for lines not matching any known prompt.
	PromptNone Prompt = iota
	// PromptLogin is the getty login prompt asking for a user name.
	PromptLogin
	// PromptShell is the prompt of an interactive shell logged in as the
	// provisioning user.
	PromptShell
)

// String implements [fmt.Stringer].
func (p Prompt) String() string {
	switch p {
	case PromptNone:
		return "none"
	case PromptLogin:
		return "login"
	case PromptShell:
		return "shell"
	default:
		return "prompt(" + strconv.Itoa(int(p)) + ")"
	}
}

// PromptRule maps an exact console line to a [Prompt].
type PromptRule struct {
	Text   string
	Prompt Prompt
}

// Prompts is an ordered table of [PromptRule]s.
type Prompts []PromptRule

const (
	// DefaultLoginPrompt is the login prompt of a stock FreeBSD image.
	DefaultLoginPrompt = "login: "
	// DefaultShellPrompt is the root shell prompt of a stock FreeBSD image.
	DefaultShellPrompt = "root@freebsd:~ # "
)

// DefaultPrompts match a stock FreeBSD image logging in as root.
var DefaultPrompts = Prompts{
	{Text: DefaultLoginPrompt, Prompt: PromptLogin},
	{Text: DefaultShellPrompt, Prompt: PromptShell},
}

// Classify returns the [Prompt] of the first rule whose text is equal to the
// given line.
//
// Matching is exact. A prompt that is only partially received yet does not
// match, neither does a line that contains a prompt text with anything else
// around it.
func (p Prompts) Classify(line string) Prompt {
	if line == "" {
		return PromptNone
	}

	for _, rule := range p {
		if rule.Text == line {
			return rule.Prompt
		}
	}

	return PromptNone
}

// With returns a copy of the table with the text of the given prompt replaced,
// or a rule added if there is none for it yet.
func (p Prompts) With(prompt Prompt, text string) Prompts {
	prompts := make(Prompts, 0, len(p)+1)
	found := false

	for _, rule := range p {
		if rule.Prompt == prompt {
			rule.Text = text
			found = true
		}

		prompts = append(prompts, rule)
	}

	if !found {
		prompts = append(prompts, PromptRule{Text: text, Prompt: prompt})
	}

	return prompts
}

// Validate checks that no rule has an empty text, maps to [PromptNone] or
// shares its text with another rule.
func (p Prompts) Validate() error {
	seen := make(map[string]struct{}, len(p))

	for idx, rule := range p {
		switch {
		case rule.Text == "":
			return fmt.Errorf("%w: rule %d: empty text", ErrInvalidPrompt, idx)
		case rule.Prompt == PromptNone:
			return fmt.Errorf("%w: rule %d: no prompt", ErrInvalidPrompt, idx)
		}

		if _, exists := seen[rule.Text]; exists {
			return fmt.Errorf("%w: duplicate text %q", ErrInvalidPrompt, rule.Text)
		}

		seen[rule.Text] = struct{}{}
	}

	return nil
}

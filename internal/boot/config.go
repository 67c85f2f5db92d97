// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package boot

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/aibor/vmprovision/internal/sys"
)

const (
	// DefaultUsername is the user logged in as on the login prompt.
	DefaultUsername = "root"

	// DefaultCommand installs the public key read from the following
	// here-document, enables the SSH daemon, permits root login and
	// restarts the daemon. It works on stock FreeBSD images.
	DefaultCommand = "mkdir -p -m 700 ~/.ssh" +
		" && cat > ~/.ssh/authorized_keys <<'EOF'" +
		" && chmod 600 ~/.ssh/authorized_keys" +
		" && sysrc sshd_enable=YES" +
		" && echo 'PermitRootLogin yes' >> /etc/ssh/sshd_config" +
		" && service sshd restart"

	// DefaultTerminator closes the here-document opened by
	// [DefaultCommand]. The leading newline terminates a public key without
	// trailing newline.
	DefaultTerminator = "\nEOF\n"

	// DefaultSettleDelay is the time given to the guest shell to start
	// reading the here-document.
	DefaultSettleDelay = 2 * time.Second

	// DefaultPieceDelay is the delay between two pieces of the public key.
	DefaultPieceDelay = 50 * time.Millisecond
)

var (
	errEmpty         = errors.New("must not be empty")
	errMultiLine     = errors.New("must be a single line")
	errNegative      = errors.New("must not be negative")
	errPromptMissing = errors.New("prompt missing")
)

// Dialogue configures the provisioning dialogue that is sent once the shell
// prompt is seen.
//
// The dialogue consists of the command line, a settle delay, the public key
// written in pieces and the terminator. The order is essential: data written
// before the shell reads the here-document is lost.
type Dialogue struct {
	// Command is the single shell command line that opens a here-document
	// for the public key. A newline is appended when sent.
	Command string

	// SettleDelay is waited for after sending the command line.
	SettleDelay time.Duration

	// Terminator is sent after the public key. It must end the
	// here-document.
	Terminator string

	// PieceBits is the size of the public key pieces in bits. Must be a
	// positive multiple of 8.
	PieceBits int

	// PieceDelay is waited for between two public key pieces.
	PieceDelay time.Duration
}

// Config is the configuration of a [Session].
type Config struct {
	// Username is sent on the login prompt.
	Username string

	// PublicKeyPath is the path to the public key file that is installed
	// in the guest. It must be readable UTF-8 text.
	PublicKeyPath string

	// Prompts classify console lines. It must contain rules for
	// [console.PromptLogin] and [console.PromptShell].
	Prompts console.Prompts

	// Dialogue is the provisioning dialogue.
	Dialogue Dialogue

	// Transcript receives a copy of all console output, if set.
	Transcript io.Writer
}

// DefaultConfig returns a [Config] with all defaults set for a stock
// FreeBSD guest. Only the PublicKeyPath needs to be set.
func DefaultConfig() Config {
	return Config{
		Username: DefaultUsername,
		Prompts:  console.DefaultPrompts,
		Dialogue: Dialogue{
			Command:     DefaultCommand,
			SettleDelay: DefaultSettleDelay,
			Terminator:  DefaultTerminator,
			PieceBits:   console.DefaultPieceBits,
			PieceDelay:  DefaultPieceDelay,
		},
	}
}

// Validate checks the config for consistency. It returns a [ConfigError]
// for the first issue found.
func (c *Config) Validate() error {
	err := validateLine(c.Username)
	if err != nil {
		return &ConfigError{"username", err}
	}

	err = c.Prompts.Validate()
	if err != nil {
		return &ConfigError{"prompts", err}
	}

	for _, prompt := range []console.Prompt{
		console.PromptLogin,
		console.PromptShell,
	} {
		if !c.hasPrompt(prompt) {
			return &ConfigError{
				"prompts",
				fmt.Errorf("%w: %s", errPromptMissing, prompt),
			}
		}
	}

	err = c.Dialogue.validate()
	if err != nil {
		return err
	}

	err = sys.ValidateReadable(c.PublicKeyPath)
	if err != nil {
		return &ConfigError{"public key", err}
	}

	return nil
}

func (c *Config) hasPrompt(prompt console.Prompt) bool {
	for _, rule := range c.Prompts {
		if rule.Prompt == prompt {
			return true
		}
	}

	return false
}

func (d *Dialogue) validate() error {
	err := validateLine(d.Command)
	if err != nil {
		return &ConfigError{"command", err}
	}

	if d.Terminator == "" {
		return &ConfigError{"terminator", errEmpty}
	}

	if d.PieceBits <= 0 || d.PieceBits%8 != 0 {
		return &ConfigError{
			"piece size",
			fmt.Errorf("%w: %d", console.ErrInvalidPieceSize, d.PieceBits),
		}
	}

	if d.SettleDelay < 0 {
		return &ConfigError{"settle delay", errNegative}
	}

	if d.PieceDelay < 0 {
		return &ConfigError{"piece delay", errNegative}
	}

	return nil
}

func validateLine(s string) error {
	if s == "" {
		return errEmpty
	}

	if strings.ContainsAny(s, "\r\n") {
		return errMultiLine
	}

	return nil
}

// Package narrative turns the markdown-ish prose the backend produces for
// AI insights into a structured block list, so renderers never resort to
// string concatenation over raw text.
package narrative

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// BlockKind discriminates the block union.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindList      BlockKind = "list"
	KindCode      BlockKind = "code"
)

// Block is one structural unit of narrative text.
type Block struct {
	Kind BlockKind

	// Level is the heading depth, 1-6. Only set for headings.
	Level int

	// Text is the content for headings and paragraphs, with internal line
	// breaks collapsed to spaces.
	Text string

	// Items holds the entries of a list block, markers stripped.
	Items []string

	// Ordered marks a numbered list.
	Ordered bool

	// Language is the fence info string of a code block, if any.
	Language string

	// Lines are the verbatim lines of a code block.
	Lines []string
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	bulletRe  = regexp.MustCompile(`^[-*]\s+(.*)$`)
	orderedRe = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
)

// Parse segments narrative text into blocks. It is a single line-oriented
// pass; malformed input degrades to paragraphs rather than erroring.
func Parse(r io.Reader) ([]Block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		blocks []Block
		para   []string
		list   *Block
		code   *Block
	)

	flushPara := func() {
		if len(para) == 0 {
			return
		}

		blocks = append(blocks, Block{Kind: KindParagraph, Text: strings.Join(para, " ")})
		para = nil
	}

	flushList := func() {
		if list == nil {
			return
		}

		blocks = append(blocks, *list)
		list = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if code != nil {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				blocks = append(blocks, *code)
				code = nil

				continue
			}

			code.Lines = append(code.Lines, line)

			continue
		}

		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "```"):
			flushPara()
			flushList()

			code = &Block{
				Kind:     KindCode,
				Language: strings.TrimSpace(strings.TrimPrefix(trimmed, "```")),
			}

		case trimmed == "":
			flushPara()
			flushList()

		case headingRe.MatchString(trimmed):
			flushPara()
			flushList()

			m := headingRe.FindStringSubmatch(trimmed)
			blocks = append(blocks, Block{
				Kind:  KindHeading,
				Level: len(m[1]),
				Text:  strings.TrimSpace(m[2]),
			})

		case bulletRe.MatchString(trimmed):
			flushPara()

			if list == nil || list.Ordered {
				flushList()

				list = &Block{Kind: KindList}
			}

			list.Items = append(list.Items, bulletRe.FindStringSubmatch(trimmed)[1])

		case orderedRe.MatchString(trimmed):
			flushPara()

			if list == nil || !list.Ordered {
				flushList()

				list = &Block{Kind: KindList, Ordered: true}
			}

			list.Items = append(list.Items, orderedRe.FindStringSubmatch(trimmed)[1])

		default:
			flushList()

			para = append(para, trimmed)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// An unterminated fence still yields its collected lines.
	if code != nil {
		blocks = append(blocks, *code)
	}

	flushPara()
	flushList()

	return blocks, nil
}

// ParseString segments a string of narrative text.
func ParseString(s string) ([]Block, error) {
	return Parse(strings.NewReader(s))
}

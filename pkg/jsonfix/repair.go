// Package jsonfix は、AIモデルが返す崩れたJSONテキストを段階的に修復します。
// 修復は決定的なテキスト変換のみで行い、成功するまで軽い順に戦略を適用します。
package jsonfix

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RepairError は全修復戦略が失敗したことを示します。
// 呼び出し側が診断できるよう、元のテキストをそのまま保持します。
type RepairError struct {
	Raw string
	Err error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("JSONの修復に失敗しました: %v", e.Err)
}

func (e *RepairError) Unwrap() error {
	return e.Err
}

// Repair はモデル出力のテキストを検証可能なJSONバイト列へ修復します。
// 戦略は軽い順に適用します:
//  1. Markdownコードフェンスと前置きテキストの除去
//  2. そのままパース
//  3. 区切り修復（オブジェクト間の欠落カンマ、末尾カンマ）
//  4. 途切れ復旧（最後の '}' 以降を捨て、未閉鎖の括弧を補完）
//
// すべて失敗した場合は元テキストを添えた *RepairError を返します。
func Repair(text string) ([]byte, error) {
	candidate := strings.TrimSpace(StripFences(text))
	if json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	candidate = clipLeading(candidate)
	if json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	patched := RemoveTrailingCommas(InsertMissingCommas(candidate))
	if json.Valid([]byte(patched)) {
		return []byte(patched), nil
	}

	if closed, ok := CloseTruncated(patched); ok && json.Valid([]byte(closed)) {
		return []byte(closed), nil
	}

	// 失敗理由の診断には最も修復の進んだ候補を使う
	var probe any
	perr := json.Unmarshal([]byte(patched), &probe)
	if perr == nil {
		perr = fmt.Errorf("修復後のJSONが期待する構造になりませんでした")
	}
	return nil, &RepairError{Raw: text, Err: perr}
}

// RepairInto は Repair の結果を v へデコードします。
// デコード失敗も修復失敗として *RepairError にまとめます。
func RepairInto(text string, v any) error {
	data, err := Repair(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &RepairError{Raw: text, Err: err}
	}
	return nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// StripFences は ```json ... ``` 形式のコードフェンスを剥がして中身を返します。
// フェンスが無い場合は入力をそのまま返します。
func StripFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// clipLeading は最初の '{' より前の前置きテキストを捨てます。
// モデルが「以下が結果です:」のような説明を付けるケースへの対処です。
func clipLeading(text string) string {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return text
	}
	if idx := strings.Index(text, "{"); idx > 0 {
		return text[idx:]
	}
	return text
}

// InsertMissingCommas はオブジェクト境界 `}{`（空白を挟む場合も含む）に
// 欠落したカンマを挿入します。文字列リテラル内は変更しません。
func InsertMissingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		b.WriteByte(c)

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '}', ']':
			// 次の非空白文字が開き括弧ならカンマ欠落とみなす
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			if j < len(text) && (text[j] == '{' || text[j] == '[') {
				b.WriteByte(',')
			}
		}
	}
	return b.String()
}

// RemoveTrailingCommas は `}` や `]` の直前に残った末尾カンマを取り除きます。
// 文字列リテラル内は変更しません。
func RemoveTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				continue // カンマを出力しない
			}
		}

		b.WriteByte(c)
		if c == '"' {
			inString = true
		}
	}
	return b.String()
}

// CloseTruncated は途中で切れた出力を、最後に完結した '}' まで切り詰めた上で
// 未閉鎖の括弧を補完して返します。補完は配列を先に閉じ、その後に
// オブジェクトを閉じます。切り詰め位置が見つからない場合は ok=false を返します。
func CloseTruncated(text string) (string, bool) {
	lastClose := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '}':
			lastClose = i
		}
	}
	if lastClose < 0 {
		return "", false
	}

	prefix := text[:lastClose+1]

	openBraces := 0
	openBrackets := 0
	inString = false
	escaped = false
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			openBraces++
		case '}':
			openBraces--
		case '[':
			openBrackets++
		case ']':
			openBrackets--
		}
	}
	if openBraces < 0 || openBrackets < 0 {
		return "", false
	}

	return prefix + strings.Repeat("]", openBrackets) + strings.Repeat("}", openBraces), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

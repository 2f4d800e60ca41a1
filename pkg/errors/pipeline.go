package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// RangeFormatError はグリッド指定文字列が不正な場合のエラーです。
// スイープ開始前に検出され、致命的エラーとして扱われます。
type RangeFormatError struct {
	Kind   string // "int", "zero-one", "log2"
	Spec   string // 入力された文字列
	Reason string
}

func (e *RangeFormatError) Error() string {
	return fmt.Sprintf("sfa: invalid %s range %q: %s", e.Kind, e.Spec, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *RangeFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("kind", e.Kind).
		Str("spec", e.Spec).
		Str("reason", e.Reason).
		Str("type", "RangeFormatError")
}

// NewRangeFormatError は新しいRangeFormatErrorを作成し、スタックトレースを付与します。
func NewRangeFormatError(kind, spec, reason string) error {
	return errors.WithStack(&RangeFormatError{Kind: kind, Spec: spec, Reason: reason})
}

// SolverFailure は1つのハイパーパラメータ組み合わせでソルバーが失敗したことを表します。
// Fit Worker が捕捉して記録し、スイープ全体は継続します。
type SolverFailure struct {
	Params string
	Err    error
}

func (e *SolverFailure) Error() string {
	return fmt.Sprintf("sfa: solver failed for %s: %v", e.Params, e.Err)
}

func (e *SolverFailure) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SolverFailure) MarshalZerologObject(event *zerolog.Event) {
	event.Str("params", e.Params).
		Str("cause", fmt.Sprint(e.Err)).
		Str("type", "SolverFailure")
}

// NewSolverFailure は新しいSolverFailureを作成し、スタックトレースを付与します。
func NewSolverFailure(params string, err error) error {
	return errors.WithStack(&SolverFailure{Params: params, Err: err})
}

// SampleMismatchError はスタックされたビュー間でサンプル軸が一致しない場合のエラーです。
type SampleMismatchError struct {
	View     string
	Index    int    // 最初に食い違った位置（長さが異なる場合は -1）
	Expected string // 基準ビューの識別子
	Got      string
}

func (e *SampleMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("sfa: view %q has a different number of samples: expected %s, got %s", e.View, e.Expected, e.Got)
	}
	return fmt.Sprintf("sfa: view %q disagrees on sample %d: expected %q, got %q", e.View, e.Index, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SampleMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("view", e.View).
		Int("index", e.Index).
		Str("expected", e.Expected).
		Str("got", e.Got).
		Str("type", "SampleMismatchError")
}

// NewSampleMismatchError は新しいSampleMismatchErrorを作成し、スタックトレースを付与します。
func NewSampleMismatchError(view string, index int, expected, got string) error {
	return errors.WithStack(&SampleMismatchError{View: view, Index: index, Expected: expected, Got: got})
}

// NoConvergedModelError は全てのモデルが反復上限に達したため選択できない場合のエラーです。
type NoConvergedModelError struct {
	Models  int
	MaxIter int
}

func (e *NoConvergedModelError) Error() string {
	return fmt.Sprintf("sfa: no converged model: all %d scored models reached the iteration cap (%d)", e.Models, e.MaxIter)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NoConvergedModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("models", e.Models).
		Int("max_iter", e.MaxIter).
		Str("type", "NoConvergedModelError")
}

// NewNoConvergedModelError は新しいNoConvergedModelErrorを作成し、スタックトレースを付与します。
func NewNoConvergedModelError(models, maxIter int) error {
	return errors.WithStack(&NoConvergedModelError{Models: models, MaxIter: maxIter})
}

// MissingVariableError はモデルグループに期待される変数が欠けている場合のエラーです。
// スコアリングではそのモデルだけをスキップします。
type MissingVariableError struct {
	Group     string
	Variables []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("sfa: group %q is missing variables: %s", e.Group, strings.Join(e.Variables, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingVariableError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("group", e.Group).
		Strs("variables", e.Variables).
		Str("type", "MissingVariableError")
}

// NewMissingVariableError は新しいMissingVariableErrorを作成し、スタックトレースを付与します。
func NewMissingVariableError(group string, variables ...string) error {
	return errors.WithStack(&MissingVariableError{Group: group, Variables: variables})
}

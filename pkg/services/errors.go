package services

import (
	"errors"
	"fmt"
)

// 入力ファイルに関する致命的エラー（リクエストを中断する）
var (
	ErrNoFile              = errors.New("no file supplied")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrEmptyFile           = errors.New("file has no rows")
	ErrMalformedFile       = errors.New("file could not be parsed as a table")
	ErrMissingDateColumn   = errors.New("missing 'Date' column")
	ErrMissingDemandColumn = errors.New("missing 'Order_Demand' column")
	ErrNoProductColumn     = errors.New("no product column found (need Product_ID/Product_Code/Product_Category)")
	ErrNoValidRows         = errors.New("no rows with a valid date, product and non-negative demand")
)

// 予測リクエストに関するエラー
var (
	// ErrEmptySelection 予測対象の製品が選択されていない（修正して再送可能）
	ErrEmptySelection = errors.New("please select at least one product")
	// ErrUnknownProduct 選択された製品がデータセットに存在しない（製品単位の失敗）
	ErrUnknownProduct = errors.New("product not present in dataset")
	// ErrInvalidRequest 予測リクエストのパラメータが不正
	ErrInvalidRequest = errors.New("invalid forecast request")
)

// InputError FatalInputError: 入力ファイルが処理できない
type InputError struct {
	Err    error
	Detail string
}

func (e *InputError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *InputError) Unwrap() error { return e.Err }

func newInputError(err error, format string, args ...interface{}) *InputError {
	return &InputError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsInputError errがFatalInputErrorかどうか
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

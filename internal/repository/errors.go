package repository

import "errors"

// 対象が存在しない
var ErrNotFound = errors.New("not found")

// 一意制約違反など、同時実行で負けた
var ErrConflict = errors.New("conflict")

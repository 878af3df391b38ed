package api

import (
	"strconv"
	"time"
)

const defaultTestTTL = time.Hour

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

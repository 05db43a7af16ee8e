package errors

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	RedisMiss bool   `json:"redis_miss,omitempty"`
	RedisErr  string `json:"redis_err,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if errors.Is(err, redis.Nil) {
		d.RedisMiss = true
		return d
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		d.RedisErr = redisErr.Error()
	}

	return d
}

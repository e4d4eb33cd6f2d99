package e

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码定义
const (
	SUCCESS         = 0
	ERROR           = 1
	INVALID_PARAMS  = 2
	ERROR_NOT_EXIST = 3

	ERROR_AUTH_CHECK_TOKEN_FAIL    = 10001
	ERROR_AUTH_CHECK_TOKEN_TIMEOUT = 10002
	ERROR_AUTH_TOKEN               = 10003
	ERROR_AUTH                     = 10004
	ERROR_FORBIDDEN                = 10005

	ERROR_USER_EXISTS           = 20001
	ERROR_USER_NOT_EXISTS       = 20002
	ERROR_FARMER_NOT_EXISTS     = 20003
	ERROR_BUYER_NOT_EXISTS      = 20004
	ERROR_AGENT_NOT_EXISTS      = 20005
	ERROR_NOT_DELIVERY_AGENT    = 20006
	ERROR_BUYER_PROFILE_MISSING = 20007

	ERROR_PRODUCT_NOT_EXISTS = 30001

	ERROR_CART_EMPTY = 40001

	ERROR_ORDER_NOT_EXISTS          = 50001
	ERROR_INVALID_STATUS            = 50002
	ERROR_INVALID_STATUS_TRANSITION = 50003
	ERROR_ORDER_STATUS_CHANGED      = 50004
	ERROR_LOCKED                    = 50005

	ERROR_PAYMENT_NOT_EXISTS  = 60001
	ERROR_PAYMENT_NOT_PENDING = 60002

	ERROR_DELIVERY_NOT_EXISTS = 70001
	ERROR_ORDER_NOT_READY     = 70002
	ERROR_LOGISTICS_ASSIGNED  = 70003
)

var MsgFlags = map[int]string{
	SUCCESS:         "ok",
	ERROR:           "Internal server error",
	INVALID_PARAMS:  "Invalid request parameters",
	ERROR_NOT_EXIST: "Not found",

	ERROR_AUTH_CHECK_TOKEN_FAIL:    "Invalid token",
	ERROR_AUTH_CHECK_TOKEN_TIMEOUT: "Token expired",
	ERROR_AUTH_TOKEN:               "Token generation failed",
	ERROR_AUTH:                     "Access denied. No token provided.",
	ERROR_FORBIDDEN:                "Access denied",

	ERROR_USER_EXISTS:           "Email already registered",
	ERROR_USER_NOT_EXISTS:       "User not found",
	ERROR_FARMER_NOT_EXISTS:     "Farmer not found",
	ERROR_BUYER_NOT_EXISTS:      "Buyer not found",
	ERROR_AGENT_NOT_EXISTS:      "Delivery agent not found",
	ERROR_NOT_DELIVERY_AGENT:    "User is not a delivery agent",
	ERROR_BUYER_PROFILE_MISSING: "Buyer profile not found",

	ERROR_PRODUCT_NOT_EXISTS: "Product not found",

	ERROR_CART_EMPTY: "Cart is empty",

	ERROR_ORDER_NOT_EXISTS:          "Order not found",
	ERROR_INVALID_STATUS:            "Invalid status",
	ERROR_INVALID_STATUS_TRANSITION: "Invalid status transition",
	ERROR_ORDER_STATUS_CHANGED:      "Order status changed concurrently",
	ERROR_LOCKED:                    "Another request is processing this resource, retry later",

	ERROR_PAYMENT_NOT_EXISTS:  "Payment not found",
	ERROR_PAYMENT_NOT_PENDING: "Payment is not in pending status",

	ERROR_DELIVERY_NOT_EXISTS: "Delivery not found",
	ERROR_ORDER_NOT_READY:     "Order not ready for logistics assignment",
	ERROR_LOGISTICS_ASSIGNED:  "Logistics already assigned to this order",
}

func GetMsg(code int) string {
	msg, ok := MsgFlags[code]
	if ok {
		return msg
	}
	return MsgFlags[ERROR]
}

// Error 业务错误，携带错误码
type Error struct {
	Code int
	Msg  string
}

func (err *Error) Error() string {
	return err.Msg
}

// New 使用默认文案
func New(code int) *Error {
	return &Error{Code: code, Msg: GetMsg(code)}
}

// Newf 自定义文案
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf 非业务错误返回 ERROR
func CodeOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ERROR
}

// Is 判断 err 是否为指定错误码
func Is(err error, code int) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == code
}

// HTTPStatus 错误码到 HTTP 状态码
func HTTPStatus(code int) int {
	switch code {
	case SUCCESS:
		return http.StatusOK
	case ERROR_AUTH, ERROR_AUTH_CHECK_TOKEN_FAIL, ERROR_AUTH_CHECK_TOKEN_TIMEOUT:
		return http.StatusUnauthorized
	case ERROR_FORBIDDEN:
		return http.StatusForbidden
	case ERROR_NOT_EXIST, ERROR_USER_NOT_EXISTS, ERROR_FARMER_NOT_EXISTS, ERROR_BUYER_NOT_EXISTS,
		ERROR_PRODUCT_NOT_EXISTS, ERROR_ORDER_NOT_EXISTS, ERROR_PAYMENT_NOT_EXISTS,
		ERROR_DELIVERY_NOT_EXISTS, ERROR_AGENT_NOT_EXISTS:
		return http.StatusNotFound
	case ERROR_LOCKED:
		return http.StatusConflict
	case ERROR, ERROR_AUTH_TOKEN:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

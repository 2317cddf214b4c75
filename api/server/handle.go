package server

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/api/pagination"
	"github.com/photon-storage/idea-market/api/service"
)

// handleFunc is a service method of one of the shapes
//
//	func(c *gin.Context) error
//	func(c *gin.Context, req *T) (resp, error)
//	func(c *gin.Context, req *T, page *pagination.Query) (*pagination.Result, error)
//
// where req is bound from the query string or the JSON body.
type handleFunc any

type response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

var (
	ginContextType  = reflect.TypeOf(&gin.Context{})
	pageQueryType   = reflect.TypeOf(&pagination.Query{})
	pageResultType  = reflect.TypeOf(&pagination.Result{})
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	errNotFunc      = errors.New("handler is not a function")
	errBadContext   = errors.New("first parameter must be *gin.Context")
	errBadRequest   = errors.New("request parameter must be a pointer")
	errBadPage      = errors.New("third parameter must be *pagination.Query")
	errBadParams    = errors.New("too many parameters")
	errNoReturn     = errors.New("missing return values")
	errBadReturn    = errors.New("last return value must be error")
	errBadPageReply = errors.New("paged handler must return *pagination.Result")
)

func validateFunc(fn handleFunc) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return errNotFunc
	}

	switch t.NumIn() {
	case 3:
		if t.In(2) != pageQueryType {
			return errBadPage
		}
		fallthrough
	case 2:
		if t.In(1).Kind() != reflect.Ptr {
			return errBadRequest
		}
		fallthrough
	case 1:
		if t.In(0) != ginContextType {
			return errBadContext
		}
	default:
		return errBadParams
	}

	switch t.NumOut() {
	case 0:
		return errNoReturn
	case 1, 2:
	default:
		return errBadReturn
	}
	if t.Out(t.NumOut()-1) != errorType {
		return errBadReturn
	}

	paged := t.In(t.NumIn()-1) == pageQueryType
	if paged && (t.NumOut() != 2 || t.Out(0) != pageResultType) {
		return errBadPageReply
	}

	return nil
}

// handle adapts a service method to a gin handler. Arguments are bound
// per request and the result is wrapped in the response envelope.
// Errors are left on the context for handleError.
func (s *Server) handle(fn handleFunc) gin.HandlerFunc {
	if err := validateFunc(fn); err != nil {
		log.Fatal("invalid handler", "error", err)
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	return func(c *gin.Context) {
		args := []reflect.Value{reflect.ValueOf(c)}
		for i := 1; i < ft.NumIn(); i++ {
			arg := reflect.New(ft.In(i).Elem())
			if ft.In(i) == pageQueryType {
				page := arg.Interface().(*pagination.Query)
				if err := c.ShouldBindQuery(page); err != nil {
					_ = c.Error(errors.WithMessage(service.ErrInvalidRequest, err.Error()))
					return
				}
				page.Normalize()
			} else if err := c.ShouldBind(arg.Interface()); err != nil {
				_ = c.Error(errors.WithMessage(service.ErrInvalidRequest, err.Error()))
				return
			}
			args = append(args, arg)
		}

		out := fv.Call(args)
		if errV := out[len(out)-1]; !errV.IsNil() {
			_ = c.Error(errV.Interface().(error))
			return
		}

		var data any
		if len(out) == 2 {
			data = out[0].Interface()
		}
		c.JSON(http.StatusOK, response{
			Code: 0,
			Msg:  "success",
			Data: data,
		})
	}
}

// handleError writes the envelope of the last error left by a handler.
func handleError() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code, msg := service.Resolve(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, response{
			Code: code,
			Msg:  msg,
		})
	}
}

package passwordless

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockContext mocks router.Context. Request data is served from the maps,
// response writers only hit the mock when the test registered an expectation.
type MockContext struct {
	mock.Mock
	NextCalled bool
	StatusCode int
	HeadersM   map[string]string
	CookiesM   map[string]string
	ParamsM    map[string]string
	QueriesM   map[string]string
	LocalsMock map[any]any
	StoreM     map[string]any
}

func NewMockContext() *MockContext {
	return &MockContext{
		StatusCode: http.StatusOK,
		HeadersM:   map[string]string{},
		CookiesM:   map[string]string{},
		ParamsM:    map[string]string{},
		QueriesM:   map[string]string{},
		LocalsMock: map[any]any{},
		StoreM:     map[string]any{},
	}
}

func (m *MockContext) expects(method string) bool {
	for _, call := range m.ExpectedCalls {
		if call.Method == method {
			return true
		}
	}
	return false
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	if c, ok := args.Get(0).(context.Context); ok {
		return c
	}
	return context.Background()
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.ParamsM[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(m.ParamsM[key]); err == nil {
		return n
	}
	return defaultValue
}

func (m *MockContext) Query(name string, defaultValue string) string {
	if v, ok := m.QueriesM[name]; ok {
		return v
	}
	return defaultValue
}

func (m *MockContext) QueryInt(name string, defaultValue int) int {
	if n, err := strconv.Atoi(m.QueriesM[name]); err == nil {
		return n
	}
	return defaultValue
}

func (m *MockContext) Queries() map[string]string {
	return m.QueriesM
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	b, _ := args.Get(0).([]byte)
	return b
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		m.LocalsMock[key] = value[0]
		return nil
	}
	return m.LocalsMock[key]
}

func (m *MockContext) Render(name string, bind any, layouts ...string) error {
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	if cookie == nil {
		return
	}
	if m.expects("Cookie") {
		m.Called(cookie)
	}
	if cookie.MaxAge < 0 {
		delete(m.CookiesM, cookie.Name)
		return
	}
	m.CookiesM[cookie.Name] = cookie.Value
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := m.CookiesM[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) CookieParser(out any) error {
	args := m.Called(out)
	return args.Error(0)
}

func (m *MockContext) Redirect(location string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(location, status)
		m.StatusCode = status[0]
		return args.Error(0)
	}
	args := m.Called(location)
	m.StatusCode = http.StatusFound
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	args := m.Called(routeName, params)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) Header(key string) string {
	return m.HeadersM[key]
}

func (m *MockContext) Referer() string {
	return m.HeadersM["Referer"]
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Status(code int) router.Context {
	m.StatusCode = code
	return m
}

func (m *MockContext) Send(body []byte) error {
	if !m.expects("Send") {
		return nil
	}
	args := m.Called(body)
	return args.Error(0)
}

func (m *MockContext) SendString(body string) error {
	if !m.expects("SendString") {
		return nil
	}
	args := m.Called(body)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, v any) error {
	m.StatusCode = code
	if !m.expects("JSON") {
		return nil
	}
	args := m.Called(code, v)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	m.StatusCode = code
	if !m.expects("NoContent") {
		return nil
	}
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, value string) router.Context {
	m.HeadersM[key] = value
	return m
}

func (m *MockContext) Set(key string, value any) {
	m.StoreM[key] = value
}

func (m *MockContext) Get(key string, def any) any {
	if v, ok := m.StoreM[key]; ok {
		return v
	}
	return def
}

func (m *MockContext) GetString(key string, def string) string {
	if v, ok := m.StoreM[key].(string); ok {
		return v
	}
	return def
}

func (m *MockContext) GetInt(key string, def int) int {
	if v, ok := m.StoreM[key].(int); ok {
		return v
	}
	return def
}

func (m *MockContext) GetBool(key string, def bool) bool {
	if v, ok := m.StoreM[key].(bool); ok {
		return v
	}
	return def
}

func (m *MockContext) Bind(v any) error {
	args := m.Called(v)
	return args.Error(0)
}

var _ router.Context = (*MockContext)(nil)

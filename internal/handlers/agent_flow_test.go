package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gateway "github.com/nimasrn/smart-wakala/internal/gateways"
	"github.com/nimasrn/smart-wakala/internal/idempotency"
	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/internal/repository"
	"github.com/nimasrn/smart-wakala/internal/services"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/nimasrn/smart-wakala/pkg/pg"
	"github.com/nimasrn/smart-wakala/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"
)

// agentApp wires the real services over sqlite, miniredis and an in-memory
// provider, the same way cmd/api does.
type agentApp struct {
	register      func(r *xhttp.Router, api *xhttp.Group)
	sessions      *services.SessionService
	providerCalls *atomic.Int32
}

func setupAgentApp(t *testing.T) *agentApp {
	t.Helper()
	ctx := context.Background()

	db, err := pg.CreateSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.AutoMigrate(ctx, db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	name := "agent-" + t.Name()
	adapter, err := redis.NewRedisAdapter(name, "wakala:", &redis.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redis.Close(name) })

	calls := &atomic.Int32{}
	ln := fasthttputil.NewInmemoryListener()
	provider := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		n := calls.Add(1)
		ctx.SetContentType("application/json")
		fmt.Fprintf(ctx, `{"reference_number":"MPAUTO%04d","status":"completed"}`, n)
	}}
	go func() { _ = provider.Serve(ln) }()
	t.Cleanup(func() { _ = provider.Shutdown() })

	gwConf := gateway.DefaultConfig("http://provider.test")
	gwConf.Timeout = time.Second
	gwConf.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	client, err := gateway.NewClient(gwConf)
	require.NoError(t, err)

	txRepo := repository.NewTransactionRepository(db)
	users := services.NewUserService(repository.NewUserRepository(db)).WithHashCost(bcrypt.MinCost)
	sessions := services.NewSessionService(adapter, time.Hour)
	customers := services.NewCustomerService(repository.NewCustomerRepository(db), txRepo)
	transactions := services.NewTransactionService(txRepo, client)
	health := services.NewHealthService(map[string]services.Pinger{"database": db, "redis": adapter})
	idem := idempotency.NewStore(adapter, idempotency.DefaultConfig())

	return &agentApp{
		sessions:      sessions,
		providerCalls: calls,
		register: func(r *xhttp.Router, api *xhttp.Group) {
			RegisterPageRoutes(r, NewPageHandler(users, sessions, transactions))
			RegisterHealthRoutes(api, NewHealthHandler(health))
			RegisterUserRoutes(api, NewUserHandler(users, transactions))
			RegisterCustomerRoutes(api, NewCustomerHandler(customers))
			RegisterTransactionRoutes(api, NewTransactionHandler(transactions, idem))
		},
	}
}

func (a *agentApp) do(ctx *xhttp.RequestCtx, token string) *xhttp.RequestCtx {
	if token != "" {
		ctx.Request.Header.SetCookie(SessionCookieName, token)
	}
	serve(ctx, a.register, SessionMiddleware(a.sessions))
	return ctx
}

func (a *agentApp) login(t *testing.T, username, password string) string {
	t.Helper()
	ctx := setupTestContext(fasthttp.MethodPost, "/login", nil)
	ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
	ctx.Request.SetBodyString("username=" + username + "&password=" + password)
	a.do(ctx, "")
	require.Equal(t, fasthttp.StatusSeeOther, ctx.Response.StatusCode())

	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookieName)
	require.True(t, ctx.Response.Header.Cookie(c))
	return string(c.Value())
}

func decode[T any](t *testing.T, ctx *xhttp.RequestCtx) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &v), string(ctx.Response.Body()))
	return v
}

func TestAgentFlow(t *testing.T) {
	app := setupAgentApp(t)

	ctx := app.do(setupTestContext(fasthttp.MethodPost, "/api/v1/users",
		[]byte(`{"username":"amina","email":"amina@wakala.test","password":"s3cret-pass"}`)), "")
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	user := decode[model.User](t, ctx)
	assert.NotContains(t, string(ctx.Response.Body()), "s3cret-pass")

	token := app.login(t, "amina", "s3cret-pass")

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/", nil), token)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Karibu, amina")

	// the acting user comes from the session
	ctx = app.do(setupTestContext(fasthttp.MethodPost, "/api/v1/customers",
		[]byte(`{"first_name":"Juma","last_name":"Hassan","phone_number":"+255712345678"}`)), token)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	customer := decode[model.Customer](t, ctx)
	assert.Equal(t, user.ID, customer.UserID)

	body := fmt.Sprintf(`{"customer_id":%d,"transaction_type":"deposit","amount":50000,"fee":500,"provider":"M-Pesa","phone_number":"+255712345678"}`, customer.ID)
	create := func() *xhttp.RequestCtx {
		c := setupTestContext(fasthttp.MethodPost, "/api/v1/transactions", []byte(body))
		c.Request.Header.Set(HeaderIdempotencyKey, "deposit-1")
		return app.do(c, token)
	}

	ctx = create()
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	first := decode[model.Transaction](t, ctx)
	require.NotNil(t, first.ReferenceNumber)
	assert.Equal(t, "MPAUTO0001", *first.ReferenceNumber)
	assert.Equal(t, user.ID, first.UserID)

	ctx = create()
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	assert.Equal(t, "true", string(ctx.Response.Header.Peek(HeaderReplayed)))
	assert.Equal(t, first.ID, decode[model.Transaction](t, ctx).ID)
	assert.EqualValues(t, 1, app.providerCalls.Load())

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/api/v1/references/MPAUTO0001", nil), token)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, first.ID, decode[model.Transaction](t, ctx).ID)

	manual := fmt.Sprintf(`{"customer_id":%d,"transaction_type":"withdrawal","amount":20000,"provider":"M-Pesa","reference_number":"MP12345","phone_number":"+255712345678"}`, customer.ID)
	ctx = app.do(setupTestContext(fasthttp.MethodPost, "/api/v1/transactions", []byte(manual)), token)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	second := decode[model.Transaction](t, ctx)

	ctx = app.do(setupTestContext(fasthttp.MethodPost, "/api/v1/transactions", []byte(manual)), token)
	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/api/v1/customers/"+strconv.FormatInt(customer.ID, 10)+"/transactions?order=desc", nil), token)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	list := decode[listResponse[*model.Transaction]](t, ctx)
	require.Len(t, list.Items, 2)
	assert.Equal(t, second.ID, list.Items[0].ID)
	assert.Equal(t, first.ID, list.Items[1].ID)

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/api/v1/users/"+strconv.FormatInt(user.ID, 10)+"/summary", nil), token)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Len(t, decode[summaryResponse](t, ctx).Items, 2)

	ctx = app.do(setupTestContext(fasthttp.MethodDelete, "/api/v1/users/"+strconv.FormatInt(user.ID, 10), nil), token)
	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/api/v1/health", nil), "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = app.do(setupTestContext(fasthttp.MethodPost, "/logout", nil), token)
	assert.Equal(t, fasthttp.StatusSeeOther, ctx.Response.StatusCode())

	ctx = app.do(setupTestContext(fasthttp.MethodGet, "/", nil), token)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	page := string(ctx.Response.Body())
	assert.Contains(t, page, "Smart Wakala")
	assert.False(t, strings.Contains(page, "Karibu"))
}

func TestAgentFlow_LoginRejectsWrongPassword(t *testing.T) {
	app := setupAgentApp(t)
	ctx := app.do(setupTestContext(fasthttp.MethodPost, "/api/v1/users",
		[]byte(`{"username":"baraka","email":"baraka@wakala.test","password":"s3cret-pass"}`)), "")
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	ctx = setupTestContext(fasthttp.MethodPost, "/login", nil)
	ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
	ctx.Request.SetBodyString("username=baraka&password=wrong-pass")
	app.do(ctx, "")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Invalid username or password.")
	assert.Empty(t, ctx.Response.Header.PeekCookie(SessionCookieName))
}

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/config"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/hfyy456/bread-manager-1-sub001/internal/middleware"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_bakery"
	JWTSecret  = "bread-manager-test-secret"
	JWTIssuer  = "bread-manager"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB 默认使用内存 sqlite；TEST_DB_DRIVER=postgres 时在独立 schema 里跑，测试结束后删除
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	var db *gorm.DB
	if strings.EqualFold(os.Getenv("TEST_DB_DRIVER"), "postgres") {
		db = setupPostgres(t)
	} else {
		db = setupSQLite(t)
	}
	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}
	return db
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.GetEnvOrDefault("DB_HOST", "127.0.0.1"),
		config.GetEnvOrDefault("DB_PORT", "5432"),
		config.GetEnvOrDefault("DB_USER", "bakery"),
		config.GetEnvOrDefault("DB_PASSWORD", "bakery"),
		config.GetEnvOrDefault("DB_NAME", "bakery"),
	)
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path 写进 DSN，连接池里的所有连接都使用测试 schema
	db, err := gorm.Open(postgres.Open(fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			if sqlClean, _ := cleanDB.DB(); sqlClean != nil {
				sqlClean.Close()
			}
		}
	})
	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret, JWTIssuer))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, permissions []string) string {
	if permissions == nil {
		permissions = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"uid":      userID,
		"name":     name,
		"store_id": "store-test",
		"roles":    []string{},
		"perms":    permissions,
		"iss":      JWTIssuer,
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken 拥有全部权限的测试用户
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin", []string{"*"})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}
	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON envelope into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// ResponseData 解析信封中的 data 到 out
func ResponseData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v: %s", err, env.Data)
	}
}

// SeedCatalog 写入一份小型配方目录：
// 红豆包(b-001) = 基础面团200g + 红豆馅50g + 糖5g，单个成本1.46
// 黄油餐包(b-002) = 基础面团100g + 黄油10g（馅料直接引用原料）
func SeedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	ingredients := []entity.Ingredient{
		{ID: "ing-flour", Name: "面粉", Unit: "袋", Price: "¥4.00", Norms: 1000, StockByPost: entity.RawJSON(`{"post-1":{"quantity":1,"unit":"袋"}}`)},
		{ID: "ing-yeast", Name: "酵母水", Unit: "瓶", Price: "0.5", Norms: 100},
		{ID: "ing-butter", Name: "黄油", Unit: "块", Price: "50", Norms: 1000, StockByPost: entity.RawJSON(`2`)},
		{ID: "ing-bean", Name: "红豆", Unit: "袋", Price: "20元", Norms: 1000},
		{ID: "ing-sugar", Name: "糖", Unit: "袋", Price: "10", Norms: 1000},
	}
	doughs := []entity.DoughRecipe{
		{
			ID: "d-001", Name: "基础面团", Yield: 1000,
			Ingredients: entity.JSONList[costing.RecipeIngredient]{{IngredientID: "面粉", Quantity: 600, Unit: "g"}},
			PreFerments: entity.JSONList[costing.SubRecipeRef]{{ID: "老面", Quantity: 30}},
		},
		{
			ID: "d-002", Name: "老面", Yield: 100,
			Ingredients: entity.JSONList[costing.RecipeIngredient]{{IngredientID: "酵母水", Quantity: 100}},
		},
	}
	fillings := []entity.FillingRecipe{
		{
			ID: "f-001", Name: "红豆馅", Yield: 500,
			Ingredients: entity.JSONList[costing.RecipeIngredient]{
				{IngredientID: "红豆", Quantity: 400},
				{IngredientID: "糖", Quantity: 100},
			},
		},
	}
	breads := []entity.BreadType{
		{
			ID: "b-001", Name: "红豆包", Price: 8, DoughID: "基础面团", DoughWeight: 200,
			Fillings:    entity.JSONList[costing.FillingUsage]{{FillingID: "红豆馅", Quantity: 50}},
			Decorations: entity.JSONList[costing.RecipeIngredient]{{IngredientID: "糖", Quantity: 5}},
		},
		{
			ID: "b-002", Name: "黄油餐包", Price: 5, DoughID: "基础面团", DoughWeight: 100,
			Fillings: entity.JSONList[costing.FillingUsage]{{FillingID: "黄油", Quantity: 10}},
		},
	}
	for _, v := range []interface{}{&ingredients, &doughs, &fillings, &breads} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("Failed to seed catalog: %v", err)
		}
	}
}

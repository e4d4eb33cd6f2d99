// tools 开发辅助命令：签发测试 token、灌入演示数据
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao/database"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/app"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/utils"
	"github.com/shopspring/decimal"
)

// SeedAccount 压测脚本读取的账号
type SeedAccount struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
	Token  string     `json:"token"`
}

// SeedData seed 子命令的输出文件格式
type SeedData struct {
	Accounts   []SeedAccount `json:"accounts"`
	ProductIDs []int64       `json:"product_ids"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "token":
		runToken(os.Args[2:])
	case "seed":
		runSeed(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tools token -user <id> -role <farmer|buyer|logistics|admin>")
	fmt.Fprintln(os.Stderr, "       tools seed [-farmers 3] [-buyers 50] [-products 5] [-out seed_data.json]")
}

func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.Int64("user", 0, "user id")
	role := fs.String("role", string(model.RoleBuyer), "role")
	_ = fs.Parse(args)

	if *userID <= 0 || !model.Role(*role).Valid() {
		usage()
		os.Exit(2)
	}
	cfg := app.BootstrapApp()
	token, err := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpireHours).GenerateToken(*userID, *role)
	if err != nil {
		panic(fmt.Errorf("签发 token 失败: %w", err))
	}
	fmt.Println(token)
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	farmers := fs.Int("farmers", 3, "number of farmers")
	buyers := fs.Int("buyers", 50, "number of buyers")
	products := fs.Int("products", 5, "products per farmer")
	out := fs.String("out", "seed_data.json", "output file")
	_ = fs.Parse(args)

	cfg := app.BootstrapApp()
	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		panic(fmt.Errorf("连接数据库失败: %w", err))
	}
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	users := service.NewUserService(db)
	productSvc := service.NewProductService(db, service.NewFarmerService(db))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	startTime := time.Now()
	stamp := startTime.Unix()
	data := SeedData{}

	newAccount := func(role model.Role, i int) *model.User {
		u, err := users.CreateUser(ctx, service.CreateUserRequest{
			FullName: fmt.Sprintf("%s %d", role, i),
			Email:    fmt.Sprintf("%s%d.%d@seed.local", role, i, stamp),
			Phone:    fmt.Sprintf("07%08d", i),
			Location: "Nairobi",
			Role:     role,
			Product:  "Vegetables",
		})
		if err != nil {
			panic(fmt.Errorf("创建用户失败: %w", err))
		}
		token, err := jwtUtil.GenerateToken(u.ID, string(role))
		if err != nil {
			panic(err)
		}
		data.Accounts = append(data.Accounts, SeedAccount{UserID: u.ID, Role: role, Token: token})
		return u
	}

	newAccount(model.RoleAdmin, 1)
	newAccount(model.RoleLogistics, 1)
	for i := 1; i <= *farmers; i++ {
		u := newAccount(model.RoleFarmer, i)
		actor := service.Actor{UserID: u.ID, Role: model.RoleFarmer}
		for j := 1; j <= *products; j++ {
			qty := 1000
			p, err := productSvc.CreateProduct(ctx, actor, service.CreateProductRequest{
				Name:              fmt.Sprintf("Produce %d-%d", i, j),
				Description:       "seeded product",
				Price:             decimal.NewFromInt(int64(10 * j)),
				QuantityAvailable: &qty,
				Unit:              "kg",
				Category:          "Vegetables",
			})
			if err != nil {
				panic(fmt.Errorf("创建商品失败: %w", err))
			}
			data.ProductIDs = append(data.ProductIDs, p.ID)
		}
	}
	for i := 1; i <= *buyers; i++ {
		newAccount(model.RoleBuyer, i)
		if i%10 == 0 {
			fmt.Printf("已生成买家: %d/%d\n", i, *buyers)
		}
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		panic(fmt.Errorf("写文件失败: %w", err))
	}
	fmt.Printf("\n生成完成: %s, 账号 %d 个, 商品 %d 个, 耗时 %v\n",
		*out, len(data.Accounts), len(data.ProductIDs), time.Since(startTime))
}

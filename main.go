// @title           GA Procurement API
// @version         1.0
// @description     Procurement workflow API: material requests, purchase orders, cost center budgets and goods receipt closure.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a JWT token
package main

import "github.com/AgungSukaAFK/ga-web-sub000/cmd"

func main() {
	cmd.Execute()
}

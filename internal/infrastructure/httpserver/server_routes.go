package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	platform := api.Group("/companies/:company_id/platforms/:platform",
		s.middleware.Company.ResolveCompany(),
		s.middleware.Company.ResolvePlatform(),
		s.middleware.RateLimit.PerCompany(),
	)
	platform.GET("/stats", s.getPlatformStats)
	platform.GET("/cached-stats", s.getCachedStats)
	platform.GET("/cache", s.listPlatformCache)
	platform.PUT("/cache", s.storePlatformCache)

	cache := api.Group("/cache")
	cache.GET("/stats", s.getCacheStats)
	cache.POST("/cleanup", s.cleanupCache)

	api.GET("/fetch-logs", s.getFetchLogs)
}

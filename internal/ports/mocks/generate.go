//go:generate mockgen -source=../order_repository.go -destination=./mock_order_repository.go -package=mocks
//go:generate mockgen -source=../order_cache.go      -destination=./mock_order_cache.go      -package=mocks
//go:generate mockgen -source=../search_index.go     -destination=./mock_search_index.go     -package=mocks
//go:generate mockgen -source=../repair_queue.go     -destination=./mock_repair_queue.go     -package=mocks
//go:generate mockgen -source=../order_service.go    -destination=./mock_order_service.go    -package=mocks

package mocks

package models

// LatestTransactions keeps the first n records of the newest-first history.
func LatestTransactions(list []Record, n int) []Record {
	if n <= 0 || len(list) <= n {
		return list
	}
	return list[:n]
}

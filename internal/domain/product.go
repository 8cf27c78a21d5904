package domain

type Product struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Price int64  `bson:"price"`
}

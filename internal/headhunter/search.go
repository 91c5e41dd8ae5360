package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
)

const (
	SearchPath = "/vacancies"
)

type SearchParams struct {
	Text string `hhparam:"text"`
	// hhparam is custom tag for reflect. Please see below.
	Areas             []int    `hhparam:"area"`
	ProfessionalRoles []string `hhparam:"professional_role"`
	OrderBy           string   `hhparam:"order_by"`
	PerPage           string   `mapstructure:"per_page"`
	Period            uint     `hhparam:"period"`
}

func (c *Client) search(ctx context.Context, params *SearchParams, maxPages int) ([]Item, error) {
	p := *params
	// Set per_page max as possible. It should be faster.
	if p.PerPage == "" {
		p.PerPage = perPage
	}

	q := buildParams(&p)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q, maxPages)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	return items, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "" {
			// Failover to the config tag if our tag do not exist.
			key = field.Tag.Get("mapstructure")
		}
		if key == "" {
			continue
		}

		value := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()
		switch v := value.(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
